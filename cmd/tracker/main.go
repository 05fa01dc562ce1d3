// Package main is the terminal session tracker for calispro.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/2beens/calispro/internal/client"
	"github.com/2beens/calispro/internal/tracker"
	"github.com/2beens/calispro/internal/tracker/tui"
)

var version = "dev"

const requestTimeout = 30 * time.Second

var (
	configPath string
	apiURL     string

	runMode      string
	historyLimit int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tracker",
		Short:         "Track calisthenics sessions from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		Version:       version,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", client.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "calispro api base url (overrides config)")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newStreakCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func loadConfig() (client.FileConfig, error) {
	cfg, err := client.LoadConfig(configPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	return cfg, nil
}

func newAPIClient(cfg client.FileConfig) *client.Client {
	return client.NewClient(cfg.APIURL, cfg.Token, version, nil)
}

// authedClient refuses to run without a stored token.
func authedClient() (*client.Client, client.FileConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	if cfg.Token == "" {
		return nil, cfg, errors.New("not logged in, run `tracker login` first")
	}
	return newAPIClient(cfg), cfg, nil
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE:  runLoginCmd,
	}
}

func runLoginCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	in := bufio.NewReader(cmd.InOrStdin())
	email, err := prompt(cmd, in, "Email", cfg.Email)
	if err != nil {
		return err
	}
	password, err := readPassword(cmd, in)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	resp, err := newAPIClient(cfg).Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	cfg.Email = email
	cfg.Token = resp.Token
	if err := client.SaveConfig(configPath, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", resp.User.Name)
	return nil
}

func prompt(cmd *cobra.Command, in *bufio.Reader, label, fallback string) (string, error) {
	if fallback != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s [%s]: ", label, fallback)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ", label)
	}
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		line = fallback
	}
	if line == "" {
		return "", fmt.Errorf("%s is required", strings.ToLower(label))
	}
	return line, nil
}

// readPassword hides the input on a terminal and falls back to a plain line otherwise.
func readPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if cmd.InOrStdin() != os.Stdin || !term.IsTerminal(fd) {
		return prompt(cmd, in, "Password", "")
	}

	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(raw) == 0 {
		return "", errors.New("password is required")
	}
	return string(raw), nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, cfg, err := authedClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			if err := api.Logout(ctx); err != nil && !errors.Is(err, client.ErrUnauthorized) {
				return fmt.Errorf("logout failed: %w", err)
			}

			cfg.Token = ""
			if err := client.SaveConfig(configPath, cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <id>",
		Short: "Start a guided session for a workout, skill or exercise",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionCmd,
	}
	cmd.Flags().StringVar(&runMode, "mode", "workout", "session mode: workout, skill or exercise")
	return cmd
}

func runSessionCmd(cmd *cobra.Command, args []string) error {
	api, _, err := authedClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	target, err := resolveTarget(ctx, api, runMode, args[0])
	if err != nil {
		return err
	}
	library, err := api.Library(ctx)
	if err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}

	model, err := tui.NewModel(target, library, api)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	rec, err := tui.Run(model, tea.WithAltScreen())
	if err != nil && !errors.Is(err, tui.ErrAborted) {
		return fmt.Errorf("failed to run tracker: %w", err)
	}

	// a redirected follow-up can be discarded after the first session was saved
	if rec != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %q: %d min, %d xp.\n", rec.SessionName, rec.DurationActual, rec.XPGained)
	}
	if errors.Is(err, tui.ErrAborted) {
		fmt.Fprintln(cmd.OutOrStdout(), "Session discarded.")
	}
	return nil
}

func resolveTarget(ctx context.Context, api *client.Client, mode, id string) (tracker.Target, error) {
	switch strings.ToLower(mode) {
	case "workout":
		w, err := api.Workout(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load workout %s: %w", id, err)
		}
		return tracker.WorkoutTarget{Workout: *w}, nil
	case "skill":
		s, err := api.Skill(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load skill %s: %w", id, err)
		}
		return tracker.SkillTarget{Skill: *s}, nil
	case "exercise":
		e, err := api.Exercise(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load exercise %s: %w", id, err)
		}
		return tracker.ExerciseTarget{Exercise: *e}, nil
	default:
		return nil, fmt.Errorf("unknown mode %q, use workout, skill or exercise", mode)
	}
}

func newStreakCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Show training streaks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, _, err := authedClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			stats, err := api.Streaks(ctx)
			if err != nil {
				return fmt.Errorf("failed to load streaks: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Current streak:  %d\n", stats.CurrentStreak)
			fmt.Fprintf(out, "Longest streak:  %d\n", stats.LongestStreak)
			fmt.Fprintf(out, "Active days:     %d\n", stats.TotalActiveDays)
			if stats.HasTrainedToday {
				fmt.Fprintln(out, "Trained today.")
			} else if stats.LastActiveDate != nil {
				fmt.Fprintf(out, "Last active:     %s\n", stats.LastActiveDate.Format(time.DateOnly))
			}
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, _, err := authedClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			records, err := api.History(ctx, historyLimit)
			if err != nil {
				return fmt.Errorf("failed to load history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No sessions yet.")
				return nil
			}
			for _, r := range records {
				fmt.Fprintf(out, "%s  %-9s %-32s %3d min %4d xp\n",
					r.Date.Local().Format("2006-01-02 15:04"), r.SessionType, r.SessionName, r.DurationActual, r.XPGained)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&historyLimit, "limit", 10, "number of sessions to show")
	return cmd
}
