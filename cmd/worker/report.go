package main

import (
	"io"
	"time"

	"threadrelay/internal/worker"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)

	return t
}

// printSummary renders the counts of a finished run followed by any thread errors.
func printSummary(w io.Writer, result *worker.Result) {
	t := newTable(w)
	t.SetTitle("📊 Summary Report")
	t.AppendHeader(table.Row{"Item", "Value"})
	t.AppendRows([]table.Row{
		{"Run ID", result.RunID},
		{"Article", result.Article.ID},
		{"Title", result.Article.Title},
	})

	if thread := result.Thread; thread != nil {
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"Pages fetched", thread.PagesFetched},
			{"Comments relayed", thread.CommentsRelayed},
			{"Comments failed", thread.CommentsFailed},
			{"Comments skipped", thread.CommentsSkipped},
			{"Replies relayed", thread.RepliesRelayed},
			{"Replies failed", thread.RepliesFailed},
			{"Replies skipped", thread.RepliesSkipped},
			{"Reply fetch failures", thread.ReplyFetchFailures},
		})
	}

	t.AppendSeparator()
	t.AppendRow(table.Row{"Duration", result.Duration.Round(time.Millisecond).String()})
	t.Render()

	if result.Thread == nil || len(result.Thread.Errors) == 0 {
		return
	}

	errs := newTable(w)
	errs.SetTitle("⚠️  Errors")
	errs.AppendHeader(table.Row{"#", "Error"})

	for i, e := range result.Thread.Errors {
		errs.AppendRow(table.Row{i + 1, e.Error()})
	}

	errs.Render()
}
