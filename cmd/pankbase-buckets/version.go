package main

import (
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/pankbase/bucket-infra/internal/app"
)

// version is stamped at release time: -ldflags "-X main.version=v1.2.0".
var version = ""

// modulePath is reported when the binary carries no build info.
const modulePath = "github.com/pankbase/bucket-infra"

// buildInfo describes the running binary.
type buildInfo struct {
	Version         string `json:"version"`
	Module          string `json:"module"`
	ManifestVersion string `json:"manifestVersion"`
	GoVersion       string `json:"goVersion,omitempty"`
}

// currentBuild reads the stamped version, falling back to the module version
// recorded by "go install" and then to "dev".
func currentBuild() buildInfo {
	info := buildInfo{
		Version:         "dev",
		Module:          modulePath,
		ManifestVersion: app.ManifestVersion,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = bi.GoVersion
		if bi.Main.Path != "" {
			info.Module = bi.Main.Path
		}
		if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
	}
	if version != "" {
		info.Version = version
	}
	return info
}

func (b buildInfo) String() string {
	return fmt.Sprintf("pankbase-buckets %s (%s, manifest v%s)", b.Version, b.Module, b.ManifestVersion)
}

func newVersionCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version, module and manifest layout version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := currentBuild()
			switch format {
			case "json":
				data, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			case "text":
				fmt.Fprintln(cmd.OutOrStdout(), info)
			default:
				return fmt.Errorf("unknown format: %s", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")

	return cmd
}
