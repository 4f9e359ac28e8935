package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourusername/dupe-guard/internal/app"
	"github.com/yourusername/dupe-guard/internal/domain"
	"github.com/yourusername/dupe-guard/internal/fingerprint"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Compute the fingerprint of a message locally",
	Example: `  dupe-guard fingerprint --text "Hello world"
  dupe-guard fingerprint --caption "sale" --photo small_id --photo large_id`,
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, _ := cmd.Flags().GetString("hash")
		extractor, err := fingerprint.NewExtractor(hash)
		if err != nil {
			return err
		}

		msg, err := messageFromFlags(cmd)
		if err != nil {
			return err
		}

		fp, ok := extractor.Extract(msg)
		if !ok {
			fmt.Println("No identifying content, message would be skipped")
			return nil
		}

		fmt.Printf("Components:  %s\n", strings.Join(fingerprint.Components(msg), " | "))
		fmt.Printf("Algorithm:   %s\n", extractor.Algorithm())
		fmt.Printf("Fingerprint: %s\n", fp)
		return nil
	},
}

// mediaFlags maps fingerprint command flags to media kinds
var mediaFlags = []struct {
	flag string
	kind domain.MediaKind
}{
	{"photo", domain.MediaPhoto},
	{"video", domain.MediaVideo},
	{"document", domain.MediaDocument},
	{"audio", domain.MediaAudio},
	{"voice", domain.MediaVoice},
	{"sticker", domain.MediaSticker},
}

// messageFromFlags builds a message descriptor from the fingerprint flags
func messageFromFlags(cmd *cobra.Command) (*domain.Message, error) {
	text, _ := cmd.Flags().GetString("text")
	caption, _ := cmd.Flags().GetString("caption")

	msg := &domain.Message{
		GroupID:   "local",
		MessageID: 1,
		Text:      text,
		Caption:   caption,
	}

	for _, m := range mediaFlags {
		ids, err := cmd.Flags().GetStringArray(m.flag)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			msg.Media = append(msg.Media, domain.MediaRef{Kind: m.kind, ContentID: id})
		}
	}

	return msg, nil
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write a default config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to resolve home directory: %w", err)
			}
			path = filepath.Join(home, ".dupe-guard", "config.yaml")
		}

		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}

		groups, _ := cmd.Flags().GetStringSlice("group")
		config := domain.DefaultConfig()
		config.Dedup.MonitoredGroups = groups

		if err := app.SaveConfig(config, path); err != nil {
			return err
		}
		fmt.Printf("Config written to %s\n", path)
		return nil
	},
}

func init() {
	fingerprintCmd.Flags().String("text", "", "Message text")
	fingerprintCmd.Flags().String("caption", "", "Media caption")
	for _, m := range mediaFlags {
		fingerprintCmd.Flags().StringArray(m.flag, nil, fmt.Sprintf("%s content id (repeatable)", m.kind))
	}
	fingerprintCmd.Flags().String("hash", "md5", "Hash algorithm (md5, xxhash)")

	initConfigCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	initConfigCmd.Flags().StringSlice("group", nil, "Monitored group id (repeatable)")
}
