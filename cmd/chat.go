package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/v7mdd/MoodleMate/internal/helper"
	"github.com/v7mdd/MoodleMate/internal/models"
	"github.com/v7mdd/MoodleMate/internal/rag"
)

var (
	askSession string
	askJSON    bool
	askHTML    bool

	sessionsJSON bool
	historyJSON  bool
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Ask a question about the course material",
	Long: `Answers a question from the indexed course material. Without --session a
new chat session is started and its id is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List chat sessions, newest first",
	Args:  cobra.NoArgs,
	RunE:  runSessions,
}

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Show the messages of a chat session",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every chat session and message",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	askCmd.Flags().StringVar(&askSession, "session", "", "continue an existing session")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the response as JSON")
	askCmd.Flags().BoolVar(&askHTML, "html", false, "render the answer as HTML")
	sessionsCmd.Flags().BoolVar(&sessionsJSON, "json", false, "output sessions as JSON")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output messages as JSON")

	rootCmd.AddCommand(askCmd, sessionsCmd, historyCmd, clearCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.service().AnswerQuery(ctx, args[0], askSession)
	if err != nil {
		switch {
		case rag.IsUnavailable(err):
			return fmt.Errorf("answering is unavailable, run ingest and check the LLM settings: %w", err)
		case errors.Is(err, models.ErrSessionNotFound):
			return fmt.Errorf("unknown session %q: %w", askSession, err)
		}
		return fmt.Errorf("ask failed: %w", err)
	}

	if askHTML {
		html, err := helper.MarkdownToHTML(resp.Answer)
		if err != nil {
			return fmt.Errorf("failed to render answer: %w", err)
		}
		resp.Answer = html
	}
	if askJSON {
		return helper.PrettyPrint(cmd.OutOrStdout(), resp)
	}

	fmt.Fprintln(cmd.OutOrStdout(), resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), "Sources:")
		for _, s := range resp.Sources {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", s)
		}
	}
	if resp.IsNewSession {
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintf(cmd.OutOrStdout(), "Session: %s\n", resp.SessionID)
	}
	return nil
}

func runSessions(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sessions, err := a.history().ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if sessionsJSON {
		return helper.PrettyPrint(cmd.OutOrStdout(), sessions)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions.")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", s.ID, s.Title)
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	messages, err := a.history().GetHistory(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if historyJSON {
		return helper.PrettyPrint(cmd.OutOrStdout(), messages)
	}
	for _, m := range messages {
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n\n", m.Role, m.Content)
	}
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.history().ClearAllHistory(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
	return nil
}
