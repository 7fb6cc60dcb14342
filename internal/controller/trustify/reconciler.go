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

package trustify

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	trustifyv1alpha1 "github.com/trustification/trustify-operator/api/v1alpha1"
	"github.com/trustification/trustify-operator/internal/certs"
	"github.com/trustification/trustify-operator/internal/cluster"
	"github.com/trustification/trustify-operator/internal/conditions"
	"github.com/trustification/trustify-operator/internal/config"
	"github.com/trustification/trustify-operator/internal/constants"
	controllermetrics "github.com/trustification/trustify-operator/internal/controller"
	operatorerrors "github.com/trustification/trustify-operator/internal/errors"
	"github.com/trustification/trustify-operator/internal/keycloak"
	"github.com/trustification/trustify-operator/internal/kube"
	"github.com/trustification/trustify-operator/internal/reconcile"
	"github.com/trustification/trustify-operator/internal/status"
)

// ObjectStoreChecker verifies that a declared object-store bucket is reachable.
type ObjectStoreChecker interface {
	Check(ctx context.Context, store reconcile.ObjectStorage) error
}

// TrustifyReconciler reconciles a Trustify object.
type TrustifyReconciler struct {
	client.Client
	// APIReader reads objects the manager cache does not watch, such as
	// user-supplied and platform-issued TLS secrets.
	APIReader  client.Reader
	Scheme     *runtime.Scheme
	Capability cluster.Capability
	Settings   *config.Settings
	// Preflight is optional. When nil, object-store buckets are not checked.
	Preflight ObjectStoreChecker

	MaxConcurrentReconciles int
	// KeycloakInstalled and GatewayInstalled register watches on the optional
	// boundary kinds when their CRDs are served.
	KeycloakInstalled bool
	GatewayInstalled  bool
}

// +kubebuilder:rbac:groups=org.trustify,resources=trustifies,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=org.trustify,resources=trustifies/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=org.trustify,resources=trustifies/finalizers,verbs=update
// +kubebuilder:rbac:groups=apps,resources=deployments,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups="",resources=services;secrets;configmaps;persistentvolumeclaims,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=networking.k8s.io,resources=ingresses,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=gateway.networking.k8s.io,resources=httproutes,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=k8s.keycloak.org,resources=keycloaks;keycloakrealmimports,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=config.openshift.io,resources=ingresses,verbs=get;list;watch

// Reconcile runs one pass over every managed kind of a Trustify object.
// For more details, check Reconcile and its Result here:
// - https://pkg.go.dev/sigs.k8s.io/controller-runtime@v0.22.4/pkg/reconcile
func (r *TrustifyReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	reconcileMetrics := controllermetrics.NewReconcileMetrics(req.Namespace, req.Name, constants.ControllerNameTrustify)
	startTime := time.Now()
	var reconcileErr error
	defer func() {
		reconcileMetrics.ObserveDuration(time.Since(startTime).Seconds())
		if reconcileErr != nil {
			reconcileMetrics.IncrementError(operatorerrors.Reason(reconcileErr))
		}
	}()

	logger := r.loggerFor(ctx, req)
	logger.Info("Reconciling Trustify")

	cr := &trustifyv1alpha1.Trustify{}
	if err := r.Get(ctx, req.NamespacedName, cr); err != nil {
		if apierrors.IsNotFound(err) {
			logger.Info("Trustify resource not found; assuming it was deleted")
			reconcileMetrics.Clear()
			return ctrl.Result{}, nil
		}
		reconcileErr = fmt.Errorf("failed to get Trustify %s/%s: %w", req.Namespace, req.Name, err)
		return ctrl.Result{}, reconcileErr
	}

	// Owner references garbage-collect every managed object.
	if !cr.DeletionTimestamp.IsZero() {
		logger.Info("Trustify is marked for deletion")
		return ctrl.Result{}, nil
	}

	original := cr.DeepCopy()
	state, err := r.newPassState(ctx, logger, cr, reconcileMetrics)
	if err != nil {
		reconcileErr = err
		return transientResult(err)
	}

	r.preflightObjectStore(ctx, state)

	if err := state.run(ctx); err != nil {
		logger.Info("Aborting pass on transient error", "error", err.Error())
		reconcileErr = err
		return transientResult(err)
	}

	state.agg.Apply(&cr.Status.Conditions, cr.Generation)
	if !state.agg.Incomplete() {
		cr.Status.ObservedGeneration = cr.Generation
	}
	if err := patchStatusIfChanged(ctx, r.Client, logger, original, cr); err != nil {
		reconcileErr = operatorerrors.WrapTransientKubernetesAPI(err)
		return ctrl.Result{}, reconcileErr
	}

	result := requeueFor(state.agg)
	logger.Info("Reconcile pass finished",
		"incomplete", state.agg.Incomplete(),
		"errors", len(state.agg.Errors()),
		"requeue_after", result.RequeueAfter.String())
	return result, nil
}

// transientResult hands an aborted pass back to the work queue. Connection errors
// carry their own delay; everything else goes through the rate limiter backoff.
func transientResult(err error) (ctrl.Result, error) {
	if _, after := operatorerrors.ShouldRequeue(err); after > 0 {
		return ctrl.Result{RequeueAfter: after}, nil
	}
	return ctrl.Result{}, err
}

// newPassState normalizes the spec and resolves the values later kinds depend on:
// the embedded identity provider handle and the server TLS secret.
func (r *TrustifyReconciler) newPassState(ctx context.Context, logger logr.Logger, cr *trustifyv1alpha1.Trustify, m *controllermetrics.ReconcileMetrics) (*passState, error) {
	p := reconcile.NewPass(cr, r.Capability)
	reader := r.reader()

	if err := keycloak.Resolve(ctx, reader, p, r.Settings); err != nil {
		if !operatorerrors.IsPermanent(err) {
			return nil, err
		}
		p.IdentityErr = err
	}

	switch {
	case p.SpecTLSSecret() != "":
		p.ServerTLSSecret = p.SpecTLSSecret()
	case r.Capability.CanAutoIssueTLS():
		name, found, err := r.Capability.AutoTLSSecret(ctx, cr, cluster.PurposeServer)
		if err != nil {
			return nil, err
		}
		if found {
			p.ServerTLSSecret = name
		}
	}

	applier := kube.NewApplier(r.Client, r.Scheme, controllermetrics.RecordOperation)
	return &passState{
		applier:  applier,
		issuer:   certs.NewIssuer(applier),
		logger:   logger,
		settings: r.Settings,
		metrics:  m,
		pass:     p,
		observed: conditions.NewObserved(),
		agg:      &status.Aggregate{},
	}, nil
}

// preflightObjectStore checks the declared bucket. It never blocks other kinds.
func (r *TrustifyReconciler) preflightObjectStore(ctx context.Context, s *passState) {
	if r.Preflight == nil {
		return
	}
	store, ok := s.pass.Storage.(reconcile.ObjectStorage)
	if !ok {
		return
	}

	err := r.Preflight.Check(ctx, store)
	switch {
	case err == nil:
		return
	case operatorerrors.IsPermanent(err):
		s.recordError(kindServerDeployment.String(), err)
	default:
		s.logger.Info("Object store is not reachable yet", "bucket", store.Bucket, "error", err.Error())
		s.agg.AddIncomplete(kindServerDeployment.String(), fmt.Sprintf("bucket %s is not reachable: %v", store.Bucket, err))
	}
}

func (r *TrustifyReconciler) reader() client.Reader {
	if r.APIReader != nil {
		return r.APIReader
	}
	return r.Client
}

func (r *TrustifyReconciler) loggerFor(ctx context.Context, req ctrl.Request) logr.Logger {
	baseLogger := log.FromContext(ctx)
	return baseLogger.WithValues(
		"trustify_namespace", req.Namespace,
		"trustify_name", req.Name,
		"controller", constants.ControllerNameTrustify,
		"reconcile_id", uuid.NewString(),
	)
}

func patchStatusIfChanged(ctx context.Context, c client.Client, logger logr.Logger, original, cr *trustifyv1alpha1.Trustify) error {
	if reflect.DeepEqual(original.Status, cr.Status) {
		return nil
	}
	if err := c.Status().Patch(ctx, cr, client.MergeFrom(original)); err != nil {
		return fmt.Errorf("failed to patch status for Trustify %s/%s: %w", cr.Namespace, cr.Name, err)
	}
	logger.V(1).Info("Patched Trustify status")
	return nil
}

// requeueFor maps the outcome of a completed pass to a requeue interval.
func requeueFor(agg *status.Aggregate) ctrl.Result {
	switch {
	case agg.Incomplete():
		return ctrl.Result{RequeueAfter: constants.RequeueShort}
	case len(agg.Errors()) > 0:
		// Configuration errors wait for a spec change or an owned-object event.
		return ctrl.Result{}
	default:
		jitterNanos := time.Now().UnixNano() % int64(constants.RequeueSafetyNetJitter)
		return ctrl.Result{RequeueAfter: constants.RequeueSafetyNetBase + time.Duration(jitterNanos)}
	}
}
