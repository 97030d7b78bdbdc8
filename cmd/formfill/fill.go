package main

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/v0xg/formfill/internal/autofill"
	"github.com/v0xg/formfill/internal/capture"
	"github.com/v0xg/formfill/internal/config"
	"github.com/v0xg/formfill/internal/crawler"
	"github.com/v0xg/formfill/internal/detect"
)

type fillFlags struct {
	persona    string
	person     autofill.Persona
	screenshot string
}

func newFillCmd() *cobra.Command {
	var f fillFlags
	cmd := &cobra.Command{
		Use:   "fill <url>",
		Short: "Open a page and fill its personal-information fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFill(cmd, args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.persona, "persona", "", "Persona id from the config file (default: first configured)")
	cmd.Flags().StringVar(&f.person.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&f.person.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&f.person.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&f.person.Address, "address", "", "Postal address")
	cmd.Flags().StringVarP(&f.screenshot, "screenshot", "o", "", "Save the filled page (.png) or a before/after animation (.gif)")
	return cmd
}

// resolvePersona merges the configured persona with flag values; flags win.
func resolvePersona(c *config.Config, f fillFlags) (autofill.Persona, error) {
	p, err := c.Persona(f.persona)
	switch {
	case errors.Is(err, config.ErrNoPersona) && f.persona == "":
		p = autofill.Persona{}
	case err != nil:
		return autofill.Persona{}, err
	}

	if f.person.Name != "" {
		p.Name = f.person.Name
	}
	if f.person.Email != "" {
		p.Email = f.person.Email
	}
	if f.person.Phone != "" {
		p.Phone = f.person.Phone
	}
	if f.person.Address != "" {
		p.Address = f.person.Address
	}

	if p.Name == "" && p.Email == "" && p.Phone == "" && p.Address == "" {
		return autofill.Persona{}, errors.New("no persona: pass --name/--email or configure personas")
	}
	return p, nil
}

func runFill(cmd *cobra.Command, url string, f fillFlags) error {
	ctx := cmd.Context()

	person, err := resolvePersona(cfg, f)
	if err != nil {
		return err
	}

	fmt.Printf("→ Opening %s... ", url)
	browser, err := crawler.Open(ctx, url, browserOptions())
	if err != nil {
		fmt.Println("failed")
		return err
	}
	defer browser.Close()
	fmt.Println("done")

	if !browser.WaitForInputs(ctx, cfg.Browser.Timeout) {
		logger.Warn("no visible inputs yet, scanning anyway", zap.String("url", url))
	}

	var frames []image.Image
	if f.screenshot != "" {
		frames = appendFrame(ctx, browser, frames)
	}

	eng := autofill.New(browser,
		autofill.WithLogger(logger),
		autofill.WithFeedback(cfg.FeedbackOptions()))

	fmt.Println("→ Filling...")
	rep := eng.Fill(ctx, person)
	for _, c := range detect.Categories {
		fmt.Printf("  %-8s %s\n", c, rep.Outcomes[c])
	}

	if f.screenshot != "" {
		frames = appendFrame(ctx, browser, frames)
		size, err := capture.Save(frames, f.screenshot, capture.Options{})
		if err != nil {
			return err
		}
		fmt.Printf("✓ Saved to %s (%.1f KB)\n", f.screenshot, float64(size)/1024)
	}

	fmt.Printf("✓ Filled %d field(s)\n", rep.Filled())
	return nil
}

func appendFrame(ctx context.Context, b *crawler.Browser, frames []image.Image) []image.Image {
	data, err := b.Screenshot(ctx)
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return frames
	}
	imgs, err := capture.Decode(data)
	if err != nil {
		logger.Warn("screenshot unreadable", zap.Error(err))
		return frames
	}
	return append(frames, imgs...)
}
