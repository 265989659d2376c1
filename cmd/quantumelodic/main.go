// Command quantumelodic is the admin console: upload, list and delete stored
// media, resolve signed URLs, inspect contacts and play tracks in the
// terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"quantumelodic/internal/client"
	"quantumelodic/internal/playback"
)

var (
	serverURL string
	token     string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "quantumelodic: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "quantumelodic",
		Short:        "Quantumelodic admin console",
		Long:         "Admin console for the quantum-server API: manage the audio and image buckets, inspect the contact log and play stored tracks.",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080/quantum-server", "API base URL including the service path segment")
	cmd.PersistentFlags().StringVarP(&token, "token", "t", os.Getenv("QUANTUM_SERVER_TOKEN"), "Bearer token")
	cmd.AddCommand(
		newBucketCmd("audio"),
		newBucketCmd("images"),
		newContactsCmd(),
		newSubscribeCmd(),
		newPlayCmd(),
	)
	return cmd
}

func apiClient() *client.Client {
	return client.New(serverURL, token)
}

func newBucketCmd(category string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   category,
		Short: fmt.Sprintf("Manage the %s bucket", category),
	}
	cmd.AddCommand(
		newUploadCmd(category),
		newListCmd(category),
		newDeleteCmd(category),
		newURLCmd(category),
	)
	if category == "audio" {
		cmd.AddCommand(newAnalysisCmd())
	}
	return cmd
}

func newUploadCmd(category string) *cobra.Command {
	var fileName string
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file (validated locally before sending)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := apiClient().Upload(cmd.Context(), category, args[0], fileName)
			if err != nil {
				return err
			}
			fmt.Printf("uploaded %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&fileName, "name", "n", "", "Object name (defaults to the file's base name)")
	return cmd
}

func newListCmd(category string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored objects",
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := apiClient().List(cmd.Context(), category)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println("(empty)")
				return nil
			}
			for _, f := range files {
				fmt.Printf("%-40s %10d  %s\n", f.Name, f.Size, f.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newDeleteCmd(category string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <fileName>",
		Short: "Delete a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Printf("delete %s/%s? [y/N] ", category, args[0])
				var answer string
				fmt.Scanln(&answer)
				if !strings.HasPrefix(strings.ToLower(answer), "y") {
					fmt.Println("aborted")
					return nil
				}
			}
			if err := apiClient().Delete(cmd.Context(), category, args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newURLCmd(category string) *cobra.Command {
	return &cobra.Command{
		Use:   "url <fileName>",
		Short: "Resolve a signed URL (valid for one hour)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := apiClient().SignedURL(cmd.Context(), category, args[0])
			if err != nil {
				return err
			}
			fmt.Println(url)
			return nil
		},
	}
}

func newAnalysisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analysis <fileName>",
		Short: "Show the stored track profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := apiClient().Analysis(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(string(profile))
			return nil
		},
	}
}

func newContactsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contacts",
		Short: "List captured contact submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := apiClient().Contacts(cmd.Context())
			if err != nil {
				return err
			}
			for _, rec := range records {
				fmt.Printf("%-30s %-20s %s\n  %s\n", rec.Email, rec.Name, rec.SubmittedAt, rec.Message)
			}
			fmt.Printf("%d contact(s)\n", len(records))
			return nil
		},
	}
}

func newSubscribeCmd() *cobra.Command {
	var name, message string
	cmd := &cobra.Command{
		Use:   "subscribe <email>",
		Short: "Submit a contact record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient().Subscribe(cmd.Context(), args[0], name, message); err != nil {
				return err
			}
			fmt.Println("subscribed")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Contact name")
	cmd.Flags().StringVar(&message, "message", "", "Message body")
	return cmd
}

func newPlayCmd() *cobra.Command {
	var volume float64
	cmd := &cobra.Command{
		Use:   "play <fileName>",
		Short: "Play a stored WAV track with a terminal spectrum display",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session := playback.NewSession(apiClient(), playback.Options{
				FrameRate: 30,
				OnFrame:   renderFrame,
			})
			if err := session.Load(ctx, args[0]); err != nil {
				return fmt.Errorf("audio unavailable: %w", err)
			}
			session.SetVolume(volume)
			if err := session.Play(); err != nil {
				return err
			}
			fmt.Printf("playing %s (%.1fs)\n", args[0], session.Duration())

			ticker := time.NewTicker(200 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					session.Pause()
					fmt.Println()
					return nil
				case <-ticker.C:
					if session.State() == playback.StateEnded {
						fmt.Println("\ndone")
						return nil
					}
				}
			}
		},
	}
	cmd.Flags().Float64Var(&volume, "volume", 0.7, "Playback volume (0.0-1.0)")
	return cmd
}

var barLevels = []rune(" ▁▂▃▄▅▆▇█")

func renderFrame(frame playback.AnalysisFrame) {
	var sb strings.Builder
	sb.WriteString("\r")
	for _, bin := range frame.FrequencyBins {
		sb.WriteRune(barLevels[int(bin)*(len(barLevels)-1)/255])
	}
	fmt.Fprintf(os.Stdout, "%s  %5.0f Hz", sb.String(), frame.DominantFrequencyHz)
}
