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

// mdsctl is a command line application that inspects an mds journal.
package main

import (
	// standard libraries.
	"fmt"
	"os"

	// third-party libraries.
	"github.com/spf13/cobra"

	// this project.
	"github.com/zmz/ceph/cmd/mdsctl/command"
)

const (
	cliName        = "mdsctl"
	cliDescription = "the command-line tool for the mds journal"
)

var rootCmd = &cobra.Command{
	Use:        cliName,
	Short:      cliDescription,
	SuggestFor: []string{"mdsctl"},
}

func init() {
	cobra.EnablePrefixMatching = true

	rootCmd.AddCommand(
		command.NewJournalCommand(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(-1)
	}
}
