package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/torosent/protobench/internal/output"
	"github.com/torosent/protobench/internal/scenario"
)

type scenarioInfo struct {
	Name         string `json:"name"`
	Page         string `json:"page"`
	SmallImages  int    `json:"smallImages"`
	MediumImages int    `json:"mediumImages"`
	LargeImages  int    `json:"largeImages"`
	Styles       int    `json:"styles"`
	Scripts      int    `json:"scripts"`
	Assets       int    `json:"assets"`
}

func newScenariosCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List the test page scenarios and the assets each one loads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := make([]scenarioInfo, 0, len(scenario.Names))
			for _, name := range scenario.Names {
				p, err := scenario.Parse(name)
				if err != nil {
					return err
				}
				infos = append(infos, scenarioInfo{
					Name:         p.Name,
					Page:         p.PagePath(),
					SmallImages:  p.SmallImages,
					MediumImages: p.MediumImages,
					LargeImages:  p.LargeImages,
					Styles:       p.Styles,
					Scripts:      p.Scripts,
					Assets:       p.AssetCount(),
				})
			}
			if a.cfg.JSONOutput {
				return output.PrintJSONReport(a.out, infos)
			}

			fmt.Fprintf(a.out, "%-8s %-12s %-22s %-7s %-8s %s\n", "NAME", "PAGE", "IMAGES (S/M/L)", "STYLES", "SCRIPTS", "ASSETS")
			for _, i := range infos {
				fmt.Fprintf(a.out, "%-8s %-12s %-22s %-7d %-8d %d\n",
					i.Name, i.Page,
					fmt.Sprintf("%d/%d/%d", i.SmallImages, i.MediumImages, i.LargeImages),
					i.Styles, i.Scripts, i.Assets)
			}
			return nil
		},
	}
}
