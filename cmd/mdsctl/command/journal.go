// Copyright 2023 The zmz Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package command

import (
	// standard libraries.
	"errors"
	"fmt"
	"os"

	// third-party libraries.
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	// this project.
	"github.com/zmz/ceph/internal/mds/event"
	"github.com/zmz/ceph/internal/store/journal"
)

var (
	journalDir        string
	journalObjectSize int64
)

func NewJournalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal sub-command",
		Short: "sub-commands for journal inspection",
	}
	cmd.PersistentFlags().StringVar(&journalDir, "dir", "", "the journal directory")
	cmd.PersistentFlags().Int64Var(&journalObjectSize, "object-size", 0,
		"the object size the journal was written with, 0 for the default")
	cmd.AddCommand(headJournalCommand())
	cmd.AddCommand(dumpJournalCommand())
	return cmd
}

func headJournalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "head",
		Short: "show the journal head pointers",
		Run: func(cmd *cobra.Command, args []string) {
			j := mustRecoverJournal(cmd)
			defer j.Close()

			t := table.NewWriter()
			t.AppendHeader(table.Row{"Expire Pos", "Read Pos", "Write Pos", "Object Size"})
			t.AppendRow(table.Row{j.GetExpirePos(), j.GetReadPos(), j.GetWritePos(), j.ObjectSize()})
			t.SetOutputMirror(os.Stdout)
			t.Render()
		},
	}
}

func dumpJournalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "dump the journal records between expire pos and write pos",
		Run: func(cmd *cobra.Command, args []string) {
			j := mustRecoverJournal(cmd)
			defer j.Close()

			t := table.NewWriter()
			t.AppendHeader(table.Row{"Offset", "Type", "Detail"})
			for {
				off := j.GetReadPos()
				data, err := j.TryReadEntry()
				if err != nil {
					if !errors.Is(err, journal.ErrNotReadable) {
						cmdFailedf(cmd, "read journal failed: %s", err)
					}
					break
				}
				ev, err := event.Unmarshal(data)
				if err != nil {
					cmdFailedf(cmd, "decode record at %d failed: %s", off, err)
				}
				t.AppendRow(table.Row{off, ev.EventType().String(), eventDetail(ev)})
			}
			t.SetOutputMirror(os.Stdout)
			t.Render()
		},
	}
}

func mustRecoverJournal(cmd *cobra.Command) *journal.Journaler {
	if journalDir == "" {
		cmdFailedf(cmd, "the --dir flag MUST be set")
	}
	var opts []journal.Option
	if journalObjectSize > 0 {
		opts = append(opts, journal.WithObjectSize(journalObjectSize))
	}
	j, err := journal.New(journalDir, opts...)
	if err != nil {
		cmdFailedf(cmd, "open journal failed: %s", err)
	}
	done := make(chan error, 1)
	j.Recover(func(err2 error) {
		done <- err2
	})
	if err = <-done; err != nil {
		cmdFailedf(cmd, "recover journal failed: %s", err)
	}
	return j
}

func eventDetail(ev event.Event) string {
	switch e := ev.(type) {
	case *event.Checkpoint:
		return fmt.Sprintf("roots=%v", e.Roots)
	case *event.Update:
		return fmt.Sprintf("path=%s ino=%d mode=%o size=%d v=%d", e.Path, e.Ino, e.Mode, e.Size, e.Version)
	default:
		return ""
	}
}

func cmdFailedf(cmd *cobra.Command, format string, a ...interface{}) {
	errStr := format
	if a != nil {
		errStr = fmt.Sprintf(format, a...)
	}
	fmt.Fprintf(os.Stderr, "%s: %s\n", cmd.Use, errStr)
	os.Exit(1)
}
