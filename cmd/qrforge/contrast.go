package main

import (
	"fmt"

	"github.com/qrforge/qrforge/internal/colors"
	"github.com/qrforge/qrforge/internal/contrast"
	"github.com/spf13/cobra"
)

func newContrastCmd() *cobra.Command {
	var (
		fill     string
		back     string
		minRatio float64
	)

	cmd := &cobra.Command{
		Use:   "contrast",
		Short: "Check whether a fill/background pair is scannable",
		Example: `  qrforge contrast --fill navy --back white
  qrforge contrast --fill "#777" --back "#fff" --min-ratio 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := contrast.NewValidator(minRatio)
			if err != nil {
				return err
			}

			f, err := colors.Parse(fill)
			if err != nil {
				return err
			}
			b, err := colors.Parse(back)
			if err != nil {
				return err
			}
			fc, bc := contrast.FromColor(f), contrast.FromColor(b)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fill:       %s (luminance %.4f)\n", fc, contrast.RelativeLuminance(fc))
			fmt.Fprintf(out, "background: %s (luminance %.4f)\n", bc, contrast.RelativeLuminance(bc))
			fmt.Fprintf(out, "ratio:      %.2f:1 (minimum %g:1)\n", contrast.Ratio(fc, bc), v.MinRatio())

			if err := v.Check(fc, bc); err != nil {
				return err
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}

	cmd.Flags().StringVar(&fill, "fill", "black", "fill colour (name, #rgb, #rrggbb or rgb(r, g, b))")
	cmd.Flags().StringVar(&back, "back", "white", "background colour")
	cmd.Flags().Float64Var(&minRatio, "min-ratio", contrast.DefaultMinRatio, "minimum contrast ratio (1-21.2)")

	return cmd
}
