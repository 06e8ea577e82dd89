package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/qrforge/qrforge/internal/api"
	"github.com/qrforge/qrforge/internal/colors"
	"github.com/qrforge/qrforge/internal/config"
	"github.com/qrforge/qrforge/internal/contrast"
	"github.com/qrforge/qrforge/internal/render"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// styleFlags are shared by generate and fetch.
type styleFlags struct {
	fill   string
	back   string
	style  string
	logo   string
	output string
}

func (f *styleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.fill, "fill", api.DefaultFillColor, "fill colour (name, #rgb, #rrggbb or rgb(r, g, b))")
	cmd.Flags().StringVar(&f.back, "back", api.DefaultBackColor, "background colour")
	cmd.Flags().StringVar(&f.style, "style", string(render.StyleSquare), "module style (square, rounded, dot)")
	cmd.Flags().StringVar(&f.logo, "logo", "", "logo image to place in the centre")
	cmd.Flags().StringVarP(&f.output, "output", "o", "qrcode.png", `output file, "-" for stdout`)
}

func newGenerateCmd() *cobra.Command {
	var (
		flags     styleFlags
		minRatio  float64
		boxSize   int
		border    int
		logoScale float64
	)

	cmd := &cobra.Command{
		Use:   "generate <content>",
		Short: "Render a styled QR code locally",
		Example: `  qrforge generate https://example.com -o example.png
  qrforge generate https://example.com --fill "#1a237e" --style rounded --logo logo.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := contrast.NewValidator(minRatio)
			if err != nil {
				return err
			}

			fill, err := colors.Parse(flags.fill)
			if err != nil {
				return err
			}
			back, err := colors.Parse(flags.back)
			if err != nil {
				return err
			}
			if err := v.Check(contrast.FromColor(fill), contrast.FromColor(back)); err != nil {
				return err
			}

			style, err := render.ParseModuleStyle(flags.style)
			if err != nil {
				return err
			}

			opts := render.DefaultOptions(args[0])
			opts.Fill = fill
			opts.Background = back
			opts.Style = style
			opts.BoxSize = boxSize
			opts.Border = border
			opts.LogoScale = logoScale

			if flags.logo != "" {
				f, err := os.Open(flags.logo)
				if err != nil {
					return fmt.Errorf("open logo: %w", err)
				}
				logo, err := render.DecodeLogo(f)
				_ = f.Close()
				if err != nil {
					return err
				}
				opts.Logo = logo
			}

			start := time.Now()
			img, err := render.Render(opts)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := render.EncodePNG(&buf, img); err != nil {
				return err
			}
			log.Debug().Dur("duration", time.Since(start)).Int("width", img.Bounds().Dx()).Msg("rendered")

			return writeOutput(flags.output, buf.Bytes(), cmd.OutOrStdout())
		},
	}

	flags.register(cmd)
	cmd.Flags().Float64Var(&minRatio, "min-ratio", contrast.DefaultMinRatio, "minimum contrast ratio (1-21.2)")
	cmd.Flags().IntVar(&boxSize, "box-size", render.DefaultBoxSize, "module size in pixels")
	cmd.Flags().IntVar(&border, "border", render.DefaultBorder, "quiet zone width in modules")
	cmd.Flags().Float64Var(&logoScale, "logo-scale", render.DefaultLogoScale, "logo width as a fraction of the image")

	return cmd
}

func newFetchCmd() *cobra.Command {
	var (
		flags     styleFlags
		serverURL string
		secret    string
		basic     bool
		size      int
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "fetch <content>",
		Short: "Request a QR code from a qrforge server",
		Example: `  qrforge fetch https://example.com --server http://localhost:8000 --basic --size 512
  QRFORGE_API_SECRET=... qrforge fetch https://example.com --style dot --logo logo.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv(config.EnvAPISecret)
			}
			if secret == "" {
				return fmt.Errorf("secret required (use --secret or %s)", config.EnvAPISecret)
			}

			client := api.NewClient(serverURL, secret)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			var (
				data []byte
				err  error
			)
			if basic {
				data, err = client.GenerateBasic(ctx, args[0], size)
			} else {
				req := api.CustomRequest{
					URL:       args[0],
					FillColor: flags.fill,
					BackColor: flags.back,
					Style:     render.ModuleStyle(flags.style),
				}
				if flags.logo != "" {
					f, openErr := os.Open(flags.logo)
					if openErr != nil {
						return fmt.Errorf("open logo: %w", openErr)
					}
					defer func() { _ = f.Close() }()
					req.Logo = f
					req.LogoName = filepath.Base(f.Name())
				}
				data, err = client.GenerateCustom(ctx, req)
			}
			if err != nil {
				return err
			}

			return writeOutput(flags.output, data, cmd.OutOrStdout())
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&serverURL, "server", "s", "http://localhost:8000", "qrforge server URL")
	cmd.Flags().StringVar(&secret, "secret", "", "API secret (default $"+config.EnvAPISecret+")")
	cmd.Flags().BoolVar(&basic, "basic", false, "request a plain black on white code")
	cmd.Flags().IntVar(&size, "size", 0, "image size in pixels for --basic (0 lets the server choose)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")

	return cmd
}
