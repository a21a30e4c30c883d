package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	levels "github.com/CodeAndHammer/blackbox/internal/levels"
	util "github.com/CodeAndHammer/blackbox/internal/util"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "blackbox",
		Short: "Black Box Decoder - a three level cipher puzzle",
		Long: `Black Box Decoder shows sample plaintext/ciphertext pairs for three
substitution ciphers and asks the player to decode a held-out ciphertext.

Run without arguments to start the web server.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE:  runServe,
	}

	var level int
	encryptCmd := &cobra.Command{
		Use:   "encrypt <text>",
		Short: "Encrypt text with a level's cipher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCipher(cmd.OutOrStdout(), level, args[0], true)
		},
	}
	decryptCmd := &cobra.Command{
		Use:   "decrypt <text>",
		Short: "Decrypt text with a level's cipher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCipher(cmd.OutOrStdout(), level, args[0], false)
		},
	}
	for _, c := range []*cobra.Command{encryptCmd, decryptCmd} {
		c.Flags().IntVarP(&level, "level", "l", 1, "level number")
	}

	var reveal bool
	levelsCmd := &cobra.Command{
		Use:   "levels",
		Short: "List the levels with their samples and questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printLevels(cmd.OutOrStdout(), reveal)
		},
	}
	levelsCmd.Flags().BoolVar(&reveal, "answers", false, "also print the answers")

	root.AddCommand(serveCmd, encryptCmd, decryptCmd, levelsCmd)
	return root
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := util.NewLogger(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		return err
	}
	util.SetLogger(logger)
	defer func() { _ = logger.Sync() }()

	util.LogInfo("Starting Black Box Decoder in %s mode", map[bool]string{true: "production", false: "development"}[cfg.IsProduction()])

	s, err := newServer(cfg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return s.run(ctx)
}

func runCipher(w io.Writer, level int, text string, encrypt bool) error {
	catalog, err := levels.Default()
	if err != nil {
		return err
	}
	def, err := catalog.Get(level)
	if err != nil {
		return err
	}
	if encrypt {
		_, err = fmt.Fprintln(w, def.Cipher.Encrypt(text))
	} else {
		_, err = fmt.Fprintln(w, def.Cipher.Decrypt(text))
	}
	return err
}

func printLevels(w io.Writer, reveal bool) error {
	catalog, err := levels.Default()
	if err != nil {
		return err
	}
	for _, def := range catalog.All() {
		fmt.Fprintf(w, "%s (%s)\n  %s\n", def.Title, def.Cipher.Name(), def.Description)
		for _, s := range def.Samples() {
			fmt.Fprintf(w, "  %-16s -> %s\n", s.Plain, s.Cipher)
		}
		fmt.Fprintf(w, "  question: %s\n", def.Question)
		if reveal {
			fmt.Fprintf(w, "  answer:   %s\n", def.CorrectAnswer())
		}
	}
	return nil
}
