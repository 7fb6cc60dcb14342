package kube

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	operatorerrors "github.com/trustification/trustify-operator/internal/errors"
)

// SecretExists reports whether a Secret with the given name exists in namespace.
// An empty name never exists.
func SecretExists(ctx context.Context, reader client.Reader, namespace, name string) (bool, error) {
	if name == "" {
		return false, nil
	}
	secret := &corev1.Secret{}
	err := reader.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, secret)
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, operatorerrors.WrapTransientKubernetesAPI(fmt.Errorf("failed to get Secret %s/%s: %w", namespace, name, err))
	}
	return true, nil
}
