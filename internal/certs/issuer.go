package certs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"sigs.k8s.io/controller-runtime/pkg/client"

	trustifyv1alpha1 "github.com/trustification/trustify-operator/api/v1alpha1"
	"github.com/trustification/trustify-operator/internal/conditions"
	"github.com/trustification/trustify-operator/internal/constants"
	operatorerrors "github.com/trustification/trustify-operator/internal/errors"
	"github.com/trustification/trustify-operator/internal/kube"
)

// Issuer persists self-issued TLS material as Secrets. Secrets are created once
// and never rotated.
type Issuer struct {
	applier *kube.Applier
	now     func() time.Time
}

// NewIssuer returns an Issuer writing through applier.
func NewIssuer(applier *kube.Applier) *Issuer {
	return &Issuer{applier: applier, now: time.Now}
}

// Request describes one self-issued certificate.
type Request struct {
	Kind       conditions.Kind
	SecretName string
	Purpose    string
	DNSNames   []string
}

// Ensure returns the Secret at req.SecretName, generating it when absent.
func (i *Issuer) Ensure(ctx context.Context, logger logr.Logger, owner *trustifyv1alpha1.Trustify, req Request) (*corev1.Secret, error) {
	m := newTLSMetrics(owner.Namespace, owner.Name)

	existing := &corev1.Secret{}
	err := i.applier.Client().Get(ctx, client.ObjectKey{Namespace: owner.Namespace, Name: req.SecretName}, existing)
	switch {
	case err == nil:
		if _, err := conditions.IdentityMatcher(existing, owner, req.SecretName); err != nil {
			return nil, err
		}
		if cert, perr := ParseCertificate(existing.Data[corev1.TLSCertKey]); perr == nil {
			m.setExpiry(req.Purpose, cert.NotAfter)
		}
		return existing, nil
	case !apierrors.IsNotFound(err):
		return nil, operatorerrors.WrapTransientKubernetesAPI(fmt.Errorf("failed to get TLS Secret %s/%s: %w", owner.Namespace, req.SecretName, err))
	}

	if len(req.DNSNames) == 0 {
		return nil, fmt.Errorf("no DNS names for TLS Secret %s", req.SecretName)
	}

	now := i.now()
	certPEM, keyPEM, err := GenerateSelfSigned(req.DNSNames[0], req.DNSNames, now, constants.SelfSignedCertValidity)
	if err != nil {
		return nil, err
	}

	obj, op, err := i.applier.Apply(ctx, logger, owner, req.Kind, BuildTLSSecret(req.SecretName, owner.Namespace, certPEM, keyPEM), kube.ApplyOptions{CreateOnly: true})
	if err != nil {
		return nil, err
	}
	if op == kube.OperationCreate {
		m.incrementIssued(req.Purpose)
		m.setExpiry(req.Purpose, now.Add(constants.SelfSignedCertValidity))
	}
	secret, ok := obj.(*corev1.Secret)
	if !ok {
		return nil, fmt.Errorf("unexpected object type %T for TLS Secret", obj)
	}
	return secret, nil
}
