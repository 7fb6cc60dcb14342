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

package controller

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"os"

	// Import all Kubernetes client auth plugins (e.g. Azure, GCP, OIDC, etc.)
	// to ensure that exec-entrypoint and run can make use of them.
	_ "k8s.io/client-go/plugin/pkg/client/auth"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/client-go/discovery"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	"sigs.k8s.io/controller-runtime/pkg/metrics/filters"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"
	gatewayv1 "sigs.k8s.io/gateway-api/apis/v1"

	keycloakv2alpha1 "github.com/trustification/trustify-operator/api/keycloak/v2alpha1"
	trustifyv1alpha1 "github.com/trustification/trustify-operator/api/v1alpha1"
	"github.com/trustification/trustify-operator/internal/cluster"
	"github.com/trustification/trustify-operator/internal/config"
	trustifycontroller "github.com/trustification/trustify-operator/internal/controller/trustify"
	"github.com/trustification/trustify-operator/internal/storage"
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(trustifyv1alpha1.AddToScheme(scheme))
	utilruntime.Must(keycloakv2alpha1.AddToScheme(scheme))
	utilruntime.Must(gatewayv1.Install(scheme))
}

// Options are the controller process flags.
type Options struct {
	MetricsAddr             string
	ProbeAddr               string
	EnableLeaderElection    bool
	SecureMetrics           bool
	EnableHTTP2             bool
	MaxConcurrentReconciles int

	Platform       string
	ClusterDomain  string
	IngressDomain  string
	OperatorConfig string
	S3Preflight    bool

	Zap zap.Options
}

// BindFlags registers the controller flags. They are declared on a stdlib FlagSet,
// as controller-runtime and zap expect, and surfaced through cobra.
func BindFlags(flags *pflag.FlagSet, o *Options) {
	fs := flag.NewFlagSet("controller", flag.ContinueOnError)

	fs.StringVar(&o.MetricsAddr, "metrics-bind-address", ":8443", "The address the metrics endpoint binds to.")
	fs.StringVar(&o.ProbeAddr, "health-probe-bind-address", ":8081", "The address the probe endpoint binds to.")
	fs.BoolVar(&o.EnableLeaderElection, "leader-elect", false,
		"Enable leader election for controller manager. "+
			"Enabling this will ensure there is only one active controller manager.")
	fs.BoolVar(&o.SecureMetrics, "metrics-secure", true,
		"If set, the metrics endpoint is served securely via HTTPS. Use --metrics-secure=false to use HTTP instead.")
	fs.BoolVar(&o.EnableHTTP2, "enable-http2", false,
		"If set, HTTP/2 will be enabled for the metrics server")
	fs.IntVar(&o.MaxConcurrentReconciles, "max-concurrent-reconciles", 4,
		"Number of Trustify resources reconciled in parallel.")

	fs.StringVar(&o.Platform, "platform", cluster.PlatformAuto,
		fmt.Sprintf("Target platform: %s, %s or %s.", cluster.PlatformAuto, cluster.PlatformKubernetes, cluster.PlatformOpenShift))
	fs.StringVar(&o.ClusterDomain, "cluster-domain", "cluster.local", "Cluster DNS suffix used for internal hostnames.")
	fs.StringVar(&o.IngressDomain, "ingress-domain", "",
		"Ingress domain on OpenShift. Read from the cluster ingress config when empty.")
	fs.StringVar(&o.OperatorConfig, "operator-config", "", "Path to the operator settings YAML file.")
	fs.BoolVar(&o.S3Preflight, "s3-preflight", false, "Check that declared object-store buckets are reachable.")

	o.Zap = zap.Options{
		Development: true,
	}
	o.Zap.BindFlags(fs)

	flags.AddGoFlagSet(fs)
}

// NewCommand returns the controller subcommand.
func NewCommand() *cobra.Command {
	o := &Options{}
	cmd := &cobra.Command{
		Use:   "controller",
		Short: "Run the Trustify controller manager",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Run(cmd.Context(), o)
		},
	}
	BindFlags(cmd.Flags(), o)
	return cmd
}

// Run starts the manager and blocks until the signal handler fires.
func Run(ctx context.Context, o *Options) error {
	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&o.Zap)))

	settings, err := config.LoadSettings(o.OperatorConfig, os.Getenv)
	if err != nil {
		return fmt.Errorf("unable to load operator settings: %w", err)
	}

	// if the enable-http2 flag is false (the default), http/2 should be disabled
	// due to its vulnerabilities. More specifically, disabling http/2 will
	// prevent from being vulnerable to the HTTP/2 Stream Cancellation and
	// Rapid Reset CVEs. For more information see:
	// - https://github.com/advisories/GHSA-qppj-fm5r-hxr3
	// - https://github.com/advisories/GHSA-4374-p667-p6c8
	var tlsOpts []func(*tls.Config)
	if !o.EnableHTTP2 {
		tlsOpts = append(tlsOpts, func(c *tls.Config) {
			setupLog.Info("disabling http/2")
			c.NextProtos = []string{"http/1.1"}
		})
	}

	metricsServerOptions := metricsserver.Options{
		BindAddress:   o.MetricsAddr,
		SecureServing: o.SecureMetrics,
		TLSOpts:       tlsOpts,
	}
	if o.SecureMetrics {
		// FilterProvider is used to protect the metrics endpoint with authn/authz.
		metricsServerOptions.FilterProvider = filters.WithAuthenticationAndAuthorization
	}

	restConfig := ctrl.GetConfigOrDie()
	mgr, err := ctrl.NewManager(restConfig, ctrl.Options{
		Scheme:                 scheme,
		Metrics:                metricsServerOptions,
		HealthProbeBindAddress: o.ProbeAddr,
		LeaderElection:         o.EnableLeaderElection,
		LeaderElectionID:       "trustify-operator-leader.trustify.org",
	})
	if err != nil {
		return fmt.Errorf("unable to start manager: %w", err)
	}

	dc, err := discovery.NewDiscoveryClientForConfig(restConfig)
	if err != nil {
		return fmt.Errorf("unable to create discovery client: %w", err)
	}

	// The cache is not started yet, so detection reads through the API reader.
	capability, err := cluster.Detect(ctx, dc, mgr.GetAPIReader(), cluster.DetectOptions{
		Platform:      o.Platform,
		ClusterDomain: o.ClusterDomain,
		IngressDomain: o.IngressDomain,
	})
	if err != nil {
		return fmt.Errorf("unable to detect cluster capabilities: %w", err)
	}
	setupLog.Info("Detected cluster capabilities", "platform", capability.Name())

	keycloakInstalled, err := cluster.HasGroupVersion(dc, keycloakv2alpha1.GroupVersion.String())
	if err != nil {
		return err
	}
	gatewayInstalled, err := cluster.HasGroupVersion(dc, gatewayv1.GroupVersion.String())
	if err != nil {
		return err
	}
	if !keycloakInstalled {
		setupLog.Info("Keycloak CRDs not installed; embedded identity providers will report CRDNotInstalled")
	}

	reconciler := &trustifycontroller.TrustifyReconciler{
		Client:                  mgr.GetClient(),
		APIReader:               mgr.GetAPIReader(),
		Scheme:                  mgr.GetScheme(),
		Capability:              capability,
		Settings:                settings,
		MaxConcurrentReconciles: o.MaxConcurrentReconciles,
		KeycloakInstalled:       keycloakInstalled,
		GatewayInstalled:        gatewayInstalled,
	}
	if o.S3Preflight {
		reconciler.Preflight = storage.NewPreflight()
	}
	if err := reconciler.SetupWithManager(mgr); err != nil {
		return fmt.Errorf("unable to create controller Trustify: %w", err)
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		return fmt.Errorf("unable to set up health check: %w", err)
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		return fmt.Errorf("unable to set up ready check: %w", err)
	}

	setupLog.Info("starting controller manager")
	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("problem running manager: %w", err)
	}
	return nil
}
