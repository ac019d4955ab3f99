package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-appeals-api/internal/models"
	"github.com/noah-isme/campus-appeals-api/internal/repository"
)

type windowOptions struct {
	OpensAt  string
	ClosesAt string
}

func newWindowCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Open or close the submission window of an appeal type",
	}
	cmd.AddCommand(newWindowOpenCmd(c))
	cmd.AddCommand(newWindowCloseCmd(c))
	return cmd
}

func newWindowOpenCmd(c *cli) *cobra.Command {
	var opts windowOptions

	cmd := &cobra.Command{
		Use:   "open <appeal_type>",
		Short: "Open the window, optionally bounded by --opens-at/--closes-at (RFC3339)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opensAt, err := parseInstant("opens-at", opts.OpensAt)
			if err != nil {
				return err
			}
			closesAt, err := parseInstant("closes-at", opts.ClosesAt)
			if err != nil {
				return err
			}
			if opensAt != nil && closesAt != nil && !closesAt.After(*opensAt) {
				return errors.New("--closes-at must be after --opens-at")
			}

			return c.saveWindow(cmd, models.AppealWindow{
				AppealType: strings.TrimSpace(args[0]),
				Status:     models.WindowOpen,
				OpensAt:    opensAt,
				ClosesAt:   closesAt,
			}, false)
		},
	}

	cmd.Flags().StringVar(&opts.OpensAt, "opens-at", "", "first instant appeals are accepted")
	cmd.Flags().StringVar(&opts.ClosesAt, "closes-at", "", "last instant appeals are accepted")
	return cmd
}

func newWindowCloseCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "close <appeal_type>",
		Short: "Close the window; existing bounds are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.saveWindow(cmd, models.AppealWindow{
				AppealType: strings.TrimSpace(args[0]),
				Status:     models.WindowClosed,
			}, true)
		},
	}
}

func (c *cli) saveWindow(cmd *cobra.Command, window models.AppealWindow, keepBounds bool) error {
	if window.AppealType == "" {
		return errors.New("appeal type must not be empty")
	}

	db, err := c.db()
	if err != nil {
		return err
	}
	repo := repository.NewExamAppealRepository(db)

	if keepBounds {
		existing, err := repo.FindWindow(cmd.Context(), window.AppealType)
		switch {
		case err == nil:
			window.OpensAt = existing.OpensAt
			window.ClosesAt = existing.ClosesAt
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
	}

	if err := repo.SaveWindow(cmd.Context(), &window); err != nil {
		return err
	}

	c.logger.Info().Str("appeal_type", window.AppealType).Str("status", window.Status).Msg("appeal window updated")
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", window.AppealType, strings.ToLower(window.Status))
	return nil
}

func parseInstant(flag, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flag, err)
	}
	parsed = parsed.UTC()
	return &parsed, nil
}
