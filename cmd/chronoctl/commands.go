// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/ChronoLocal/services/host/bridge"
	"github.com/AleutianAI/ChronoLocal/services/host/datatypes"
)

// --- Global Command Variables ---
var (
	clientID     string
	projectID    string
	taskID       string
	email        string
	hourlyRate   float64
	roundingUnit int
	periodFrom   string
	periodTo     string
	withID       bool

	rootCmd = &cobra.Command{
		Use:   "chronoctl",
		Short: "A cli to manage ChronoLocal time tracking and invoicing",
		Long: `Chronoctl talks to a running chronohost: start and stop timers,
manage clients, projects and tasks, and generate invoices.`,
	}

	timerCmd = &cobra.Command{
		Use:   "timer",
		Short: "Control the active timer",
	}
	timerStartCmd = &cobra.Command{
		Use:   "start [description]",
		Short: "Start a new timer (fails if one is already running)",
		Run:   runTimerStart,
	}
	timerStopCmd = &cobra.Command{
		Use:   "stop",
		Short: "Stop the active timer and round its duration",
		Run:   runTimerStop,
	}
	timerResumeCmd = &cobra.Command{
		Use:   "resume [entry-id]",
		Short: "Resume a stopped entry, keeping its tracked time",
		Args:  cobra.ExactArgs(1),
		Run:   runTimerResume,
	}
	timerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the active timer, if any",
		Run:   runTimerStatus,
	}

	clientsCmd = &cobra.Command{
		Use:   "clients",
		Short: "Manage clients",
	}
	clientsAddCmd = &cobra.Command{
		Use:   "add [name]",
		Short: "Create a client",
		Args:  cobra.ExactArgs(1),
		Run:   runClientsAdd,
	}
	clientsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List clients",
		Run:   runList("clients:list"),
	}
	clientsRmCmd = &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a client (fails while referenced)",
		Args:  cobra.ExactArgs(1),
		Run:   runDelete("clients:delete"),
	}

	projectsCmd = &cobra.Command{
		Use:   "projects",
		Short: "Manage projects",
	}
	projectsAddCmd = &cobra.Command{
		Use:   "add [name]",
		Short: "Create a project under a client",
		Args:  cobra.ExactArgs(1),
		Run:   runProjectsAdd,
	}
	projectsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Run:   runList("projects:list"),
	}
	projectsRmCmd = &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a project (fails while referenced)",
		Args:  cobra.ExactArgs(1),
		Run:   runDelete("projects:delete"),
	}

	tasksCmd = &cobra.Command{
		Use:   "tasks",
		Short: "Manage tasks",
	}
	tasksAddCmd = &cobra.Command{
		Use:   "add [name]",
		Short: "Create a task under a project",
		Args:  cobra.ExactArgs(1),
		Run:   runTasksAdd,
	}
	tasksListCmd = &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Run:   runList("tasks:list"),
	}
	tasksRmCmd = &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a task (fails while referenced)",
		Args:  cobra.ExactArgs(1),
		Run:   runDelete("tasks:delete"),
	}

	entriesListCmd = &cobra.Command{
		Use:   "entries",
		Short: "List time entries",
		Run:   runEntriesList,
	}

	invoicesCmd = &cobra.Command{
		Use:   "invoices",
		Short: "Generate and manage invoices",
	}
	invoicesGenerateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate an invoice for a client over a period",
		Run:   runInvoicesGenerate,
	}
	invoicesRegenerateCmd = &cobra.Command{
		Use:   "regenerate [id]",
		Short: "Recompute an invoice from its linked entries",
		Args:  cobra.ExactArgs(1),
		Run:   runInvoicesRegenerate,
	}
	invoicesListCmd = &cobra.Command{
		Use:   "list",
		Short: "List invoices",
		Run:   runList("invoices:list"),
	}
	invoicesRmCmd = &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete an invoice and unlink its entries",
		Args:  cobra.ExactArgs(1),
		Run:   runDelete("invoices:delete"),
	}
	invoicesFilenameCmd = &cobra.Command{
		Use:   "filename [id]",
		Short: "Print the export filename for an invoice",
		Args:  cobra.ExactArgs(1),
		Run:   runInvoicesFilename,
	}
)

func init() {
	timerStartCmd.Flags().StringVar(&clientID, "client", "", "client id to bill against")
	timerStartCmd.Flags().StringVar(&projectID, "project", "", "project id to bill against")
	timerStartCmd.Flags().StringVar(&taskID, "task", "", "task id")
	timerStopCmd.Flags().IntVar(&roundingUnit, "rounding", 0, "rounding unit in minutes (5/10/15/30/60)")
	timerCmd.AddCommand(timerStartCmd, timerStopCmd, timerResumeCmd, timerStatusCmd)

	clientsAddCmd.Flags().StringVar(&email, "email", "", "contact email")
	clientsAddCmd.Flags().Float64Var(&hourlyRate, "rate", -1, "default hourly rate")
	clientsCmd.AddCommand(clientsAddCmd, clientsListCmd, clientsRmCmd)

	projectsAddCmd.Flags().StringVar(&clientID, "client", "", "owning client id (required)")
	projectsAddCmd.Flags().Float64Var(&hourlyRate, "rate", -1, "hourly rate override")
	projectsCmd.AddCommand(projectsAddCmd, projectsListCmd, projectsRmCmd)

	tasksAddCmd.Flags().StringVar(&projectID, "project", "", "owning project id (required)")
	tasksCmd.AddCommand(tasksAddCmd, tasksListCmd, tasksRmCmd)

	entriesListCmd.Flags().StringVar(&clientID, "client", "", "filter by client id")

	invoicesGenerateCmd.Flags().StringVar(&clientID, "client", "", "client id (required)")
	invoicesGenerateCmd.Flags().StringVar(&periodFrom, "from", "", "period start, YYYY-MM-DD (required)")
	invoicesGenerateCmd.Flags().StringVar(&periodTo, "to", "", "period end, YYYY-MM-DD (required)")
	invoicesFilenameCmd.Flags().BoolVar(&withID, "with-id", false, "include the invoice id in the filename")
	invoicesCmd.AddCommand(invoicesGenerateCmd, invoicesRegenerateCmd, invoicesListCmd,
		invoicesRmCmd, invoicesFilenameCmd)

	rootCmd.AddCommand(timerCmd, clientsCmd, projectsCmd, tasksCmd, entriesListCmd,
		invoicesCmd, gatewayCmd)
}

// --- Transport helpers ---

// invoke dials the host, runs one command, and tears the connection
// down. Short-lived CLI invocations don't hold the websocket open.
func invoke(channel string, args ...any) bridge.Envelope {
	transport := bridge.NewForwardingTransport(bridge.ForwardingConfig{URL: config.HostURL})
	defer transport.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := transport.WaitConnected(ctx); err != nil {
		log.Fatalf("Cannot reach host at %s: %v", config.HostURL, err)
	}

	env, err := transport.Invoke(ctx, channel, args...)
	if err != nil {
		log.Fatalf("Command %s failed: %v", channel, err)
	}
	return env
}

// printEnvelope renders the envelope, exiting nonzero on failure.
func printEnvelope(env bridge.Envelope) {
	if !env.Success {
		log.Fatalf("Error: %s", env.Error)
	}
	var pretty json.RawMessage = env.Data
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		fmt.Println(string(env.Data))
		return
	}
	fmt.Println(string(out))
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optRate(r float64) *float64 {
	if r < 0 {
		return nil
	}
	return &r
}

// --- Timer commands ---

func runTimerStart(cmd *cobra.Command, args []string) {
	a := datatypes.StartTimerArgs{
		ClientID:    optString(clientID),
		ProjectID:   optString(projectID),
		TaskID:      optString(taskID),
		Description: strings.Join(args, " "),
	}
	printEnvelope(invoke("timeEntries:start", a))
}

func runTimerStop(cmd *cobra.Command, args []string) {
	unit := roundingUnit
	if unit == 0 {
		unit = config.RoundingUnit
	}

	active := invoke("timeEntries:getActive")
	if !active.Success {
		log.Fatalf("Error: %s", active.Error)
	}
	var entry *datatypes.TimeEntry
	if err := json.Unmarshal(active.Data, &entry); err != nil || entry == nil {
		log.Fatal("No timer is running")
	}

	a := datatypes.StopTimerArgs{EntryID: entry.ID, RoundingUnit: unit}
	printEnvelope(invoke("timeEntries:stop", a))
}

func runTimerResume(cmd *cobra.Command, args []string) {
	printEnvelope(invoke("timeEntries:resume", args[0]))
}

func runTimerStatus(cmd *cobra.Command, args []string) {
	env := invoke("timeEntries:getActive")
	if env.Success && string(env.Data) == "null" {
		fmt.Println("No timer is running")
		return
	}
	printEnvelope(env)
}

// --- Entity commands ---

func runClientsAdd(cmd *cobra.Command, args []string) {
	printEnvelope(invoke("clients:create", map[string]any{
		"name":        args[0],
		"email":       optString(email),
		"hourly_rate": optRate(hourlyRate),
	}))
}

func runProjectsAdd(cmd *cobra.Command, args []string) {
	if clientID == "" {
		log.Fatal("--client is required")
	}
	printEnvelope(invoke("projects:create", map[string]any{
		"name":        args[0],
		"client_id":   clientID,
		"hourly_rate": optRate(hourlyRate),
	}))
}

func runTasksAdd(cmd *cobra.Command, args []string) {
	if projectID == "" {
		log.Fatal("--project is required")
	}
	printEnvelope(invoke("tasks:create", map[string]any{
		"name":       args[0],
		"project_id": projectID,
	}))
}

func runEntriesList(cmd *cobra.Command, args []string) {
	filter := map[string]any{}
	if clientID != "" {
		filter["client_id"] = clientID
	}
	printEnvelope(invoke("timeEntries:list", filter))
}

// runList covers the argument-free list channels.
func runList(channel string) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		printEnvelope(invoke(channel))
	}
}

// runDelete covers the delete-by-id channels.
func runDelete(channel string) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		printEnvelope(invoke(channel, args[0]))
	}
}

// --- Invoice commands ---

func runInvoicesGenerate(cmd *cobra.Command, args []string) {
	if clientID == "" || periodFrom == "" || periodTo == "" {
		log.Fatal("--client, --from and --to are required")
	}
	start, err := time.Parse("2006-01-02", periodFrom)
	if err != nil {
		log.Fatalf("Invalid --from date: %v", err)
	}
	end, err := time.Parse("2006-01-02", periodTo)
	if err != nil {
		log.Fatalf("Invalid --to date: %v", err)
	}
	// Make the end date inclusive.
	end = end.AddDate(0, 0, 1)

	a := datatypes.GenerateInvoiceArgs{ClientID: clientID, PeriodStart: start, PeriodEnd: end}
	printEnvelope(invoke("invoices:generate", a))
}

func runInvoicesRegenerate(cmd *cobra.Command, args []string) {
	printEnvelope(invoke("invoices:regenerate", args[0]))
}

func runInvoicesFilename(cmd *cobra.Command, args []string) {
	env := invoke("invoices:filename", map[string]any{
		"invoice_id": args[0],
		"with_id":    withID,
	})
	if !env.Success {
		log.Fatalf("Error: %s", env.Error)
	}
	var out struct {
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		log.Fatalf("Unexpected response: %v", err)
	}
	fmt.Println(out.Filename)
}
