package cluster

import (
	"context"
	"fmt"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

const (
	openShiftRouteGroupVersion = "route.openshift.io/v1"
	openShiftIngressConfigName = "cluster"
)

var openShiftIngressConfigGVK = schema.GroupVersionKind{Group: "config.openshift.io", Version: "v1", Kind: "Ingress"}

// GroupVersionDiscoverer is the part of the discovery client used for API detection.
type GroupVersionDiscoverer interface {
	ServerResourcesForGroupVersion(groupVersion string) (*metav1.APIResourceList, error)
}

// HasGroupVersion reports whether the API server serves groupVersion.
func HasGroupVersion(d GroupVersionDiscoverer, groupVersion string) (bool, error) {
	_, err := d.ServerResourcesForGroupVersion(groupVersion)
	if err == nil {
		return true, nil
	}
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to discover %s: %w", groupVersion, err)
}

// DetectOptions configures capability detection.
type DetectOptions struct {
	// Platform is one of auto, kubernetes or openshift.
	Platform string
	// ClusterDomain is the cluster DNS suffix, e.g. cluster.local.
	ClusterDomain string
	// IngressDomain overrides the domain read from the OpenShift ingress config.
	IngressDomain string
}

// Detect selects the Capability once at startup.
func Detect(ctx context.Context, d GroupVersionDiscoverer, reader client.Reader, opts DetectOptions) (Capability, error) {
	platform := strings.ToLower(strings.TrimSpace(opts.Platform))
	if platform == "" {
		platform = PlatformAuto
	}

	switch platform {
	case PlatformKubernetes:
		return NewGeneric(opts.ClusterDomain), nil
	case PlatformOpenShift:
	case PlatformAuto:
		isOpenShift, err := HasGroupVersion(d, openShiftRouteGroupVersion)
		if err != nil {
			return nil, err
		}
		if !isOpenShift {
			return NewGeneric(opts.ClusterDomain), nil
		}
	default:
		return nil, fmt.Errorf("unsupported platform %q (expected %s, %s or %s)", opts.Platform, PlatformAuto, PlatformKubernetes, PlatformOpenShift)
	}

	domain := opts.IngressDomain
	if domain == "" {
		var err error
		domain, err = openShiftIngressDomain(ctx, reader)
		if err != nil {
			return nil, err
		}
	}
	return NewOpenShift(reader, domain, opts.ClusterDomain), nil
}

func openShiftIngressDomain(ctx context.Context, reader client.Reader) (string, error) {
	u := &unstructured.Unstructured{}
	u.SetGroupVersionKind(openShiftIngressConfigGVK)
	if err := reader.Get(ctx, types.NamespacedName{Name: openShiftIngressConfigName}, u); err != nil {
		return "", fmt.Errorf("failed to read OpenShift ingress config: %w", err)
	}
	domain, _, err := unstructured.NestedString(u.Object, "spec", "domain")
	if err != nil {
		return "", fmt.Errorf("failed to parse OpenShift ingress domain: %w", err)
	}
	return domain, nil
}
