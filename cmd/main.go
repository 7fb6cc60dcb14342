/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/trustification/trustify-operator/cmd/controller"
	"github.com/trustification/trustify-operator/internal/constants"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func operatorVersion() string {
	if v := os.Getenv(constants.EnvOperatorVersion); v != "" {
		return v
	}
	return version
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "trustify-operator",
		Short:         "Kubernetes operator for Trustify",
		Version:       operatorVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(controller.NewCommand())
	cmd.AddCommand(newCmdVersion())
	return cmd
}

func newCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the operator version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), operatorVersion())
			return err
		},
	}
}

func main() {
	root := newRootCmd()
	root.SetContext(ctrl.SetupSignalHandler())
	if _, err := root.ExecuteC(); err != nil {
		ctrl.Log.WithName("setup").Error(err, "command failed")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
