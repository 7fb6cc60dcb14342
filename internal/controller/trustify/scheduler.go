package trustify

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	appsv1 "k8s.io/api/apps/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/trustification/trustify-operator/internal/certs"
	"github.com/trustification/trustify-operator/internal/conditions"
	"github.com/trustification/trustify-operator/internal/config"
	controllermetrics "github.com/trustification/trustify-operator/internal/controller"
	operatorerrors "github.com/trustification/trustify-operator/internal/errors"
	"github.com/trustification/trustify-operator/internal/kube"
	"github.com/trustification/trustify-operator/internal/reconcile"
	"github.com/trustification/trustify-operator/internal/status"
)

// identityKind is the slot an invalid identity spec is reported under.
const identityKind = "identity"

// passState is everything one reconciliation pass shares between steps.
type passState struct {
	applier  *kube.Applier
	issuer   *certs.Issuer
	logger   logr.Logger
	settings *config.Settings
	metrics  *controllermetrics.ReconcileMetrics

	pass     *reconcile.Pass
	observed *conditions.Observed
	agg      *status.Aggregate
}

// run walks the step table in order. It returns early only on a transient error;
// configuration errors and invariant violations are recorded for their kind and
// the remaining kinds still converge.
func (s *passState) run(ctx context.Context) error {
	if err := s.pass.IdentityErr; err != nil {
		s.recordError(identityKind, err)
	}

	for i := range steps {
		if err := s.runStep(ctx, &steps[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *passState) runStep(ctx context.Context, st *step) error {
	p := s.pass
	logger := s.logger.WithValues("kind", st.kind.String())

	if st.identity && p.IdentityErr != nil {
		logger.V(1).Info("Skipping kind while the identity spec is invalid")
		return nil
	}

	if !st.active(p) {
		return s.abortOnTransient(st.kind, s.applier.DeleteStale(ctx, logger, p.Trustify, st.kind, st.list(), ""))
	}

	if st.precondition != nil {
		if ok, why := st.precondition(p, s.observed); !ok {
			logger.V(1).Info("Precondition not met", "reason", why)
			s.agg.AddIncomplete(st.kind.String(), why)
			s.metrics.IncrementIncomplete(st.kind.String())
			return nil
		}
	}

	obj, err := s.converge(ctx, logger, st)
	if err != nil {
		return s.abortOnTransient(st.kind, err)
	}

	if err := s.applier.DeleteStale(ctx, logger, p.Trustify, st.kind, st.list(), obj.GetName()); err != nil {
		return s.abortOnTransient(st.kind, err)
	}

	s.observed.Record(obj)
	if st.ready != nil {
		if ok, why := st.ready(obj); !ok {
			s.agg.AddNotReady(st.kind.String(), fmt.Sprintf("%s %s", obj.GetName(), why))
		}
	}
	if d, ok := obj.(*appsv1.Deployment); ok && conditions.DeploymentRolling(d) {
		s.agg.AddRolling(d.Name)
	}
	return nil
}

// converge computes the desired object and applies it.
func (s *passState) converge(ctx context.Context, logger logr.Logger, st *step) (client.Object, error) {
	if st.ensure != nil {
		return st.ensure(ctx, s)
	}

	desired, err := st.build(s)
	if err != nil {
		// Resolvers do no I/O: whatever they reject needs a spec change.
		if !operatorerrors.IsPermanent(err) && !operatorerrors.IsInvariantViolation(err) {
			err = operatorerrors.WrapPermanentConfig(err)
		}
		return nil, err
	}

	obj, _, err := s.applier.Apply(ctx, logger, s.pass.Trustify, st.kind, desired, kube.ApplyOptions{CreateOnly: st.createOnly})
	return obj, err
}

// abortOnTransient records permanent errors and invariant violations against kind
// and hands everything else back to the caller to abort the pass.
func (s *passState) abortOnTransient(kind conditions.Kind, err error) error {
	if err == nil {
		return nil
	}
	if operatorerrors.IsPermanent(err) || operatorerrors.IsInvariantViolation(err) {
		s.logger.Error(err, "Managed kind failed", "kind", kind.String(), "reason", operatorerrors.Reason(err))
		s.recordError(kind.String(), err)
		return nil
	}
	return err
}

func (s *passState) recordError(kind string, err error) {
	reason := operatorerrors.Reason(err)
	s.agg.AddError(kind, reason, err)
	s.metrics.IncrementError(reason)
}
