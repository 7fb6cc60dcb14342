package trustify

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	gatewayv1 "sigs.k8s.io/gateway-api/apis/v1"

	keycloakv2alpha1 "github.com/trustification/trustify-operator/api/keycloak/v2alpha1"
	trustifyv1alpha1 "github.com/trustification/trustify-operator/api/v1alpha1"
	"github.com/trustification/trustify-operator/internal/config"
	"github.com/trustification/trustify-operator/internal/constants"
	operatorerrors "github.com/trustification/trustify-operator/internal/errors"
	"github.com/trustification/trustify-operator/internal/reconcile"
	"github.com/trustification/trustify-operator/internal/status"
)

type stubPreflight struct {
	err   error
	calls int
}

func (s *stubPreflight) Check(context.Context, reconcile.ObjectStorage) error {
	s.calls++
	return s.err
}

func condition(cr *trustifyv1alpha1.Trustify, t trustifyv1alpha1.ConditionType) *metav1.Condition {
	return status.Get(cr.Status.Conditions, string(t))
}

var _ = Describe("Trustify reconciliation pass", func() {
	var (
		ctx context.Context
		c   client.Client
		r   *TrustifyReconciler
	)

	name := func(suffix string) string { return testName + suffix }

	setup := func(spec trustifyv1alpha1.TrustifySpec, objs ...client.Object) {
		ctx = context.Background()
		c = newFakeClientBuilder(append([]client.Object{newTrustify(spec)}, objs...)...).Build()
		r = newReconciler(c)
	}

	Context("with the default spec", func() {
		BeforeEach(func() {
			setup(trustifyv1alpha1.TrustifySpec{})
		})

		It("stages the server behind the database and converges to Ready", func() {
			By("creating everything except the server Deployment on the first pass")
			result := reconcileOnce(ctx, r)
			Expect(result.RequeueAfter).To(Equal(constants.RequeueShort))

			Expect(exists(ctx, c, &corev1.Secret{}, name(constants.SuffixDBSecret))).To(BeTrue())
			Expect(exists(ctx, c, &corev1.PersistentVolumeClaim{}, name(constants.SuffixDBPVC))).To(BeTrue())
			Expect(exists(ctx, c, &appsv1.Deployment{}, name(constants.SuffixDBDeployment))).To(BeTrue())
			Expect(exists(ctx, c, &corev1.Service{}, name(constants.SuffixDBService))).To(BeTrue())
			Expect(exists(ctx, c, &corev1.Secret{}, name(constants.SuffixServerTLS))).To(BeTrue())
			Expect(exists(ctx, c, &corev1.ConfigMap{}, name(constants.SuffixServerConfigMap))).To(BeTrue())
			Expect(exists(ctx, c, &corev1.PersistentVolumeClaim{}, name(constants.SuffixServerPVC))).To(BeTrue())
			Expect(exists(ctx, c, &corev1.Service{}, name(constants.SuffixServerService))).To(BeTrue())
			Expect(exists(ctx, c, &corev1.Service{}, name(constants.SuffixUIService))).To(BeTrue())
			Expect(exists(ctx, c, &appsv1.Deployment{}, name(constants.SuffixUIDeployment))).To(BeTrue())
			Expect(exists(ctx, c, &networkingv1.Ingress{}, name(constants.SuffixIngress))).To(BeTrue())
			Expect(exists(ctx, c, &appsv1.Deployment{}, name(constants.SuffixServerDeployment))).To(BeFalse())
			Expect(exists(ctx, c, &keycloakv2alpha1.Keycloak{}, name(constants.SuffixKeycloak))).To(BeFalse())

			cr := fetchTrustify(ctx, c)
			ready := condition(cr, trustifyv1alpha1.ConditionReady)
			Expect(ready).NotTo(BeNil())
			Expect(ready.Status).To(Equal(metav1.ConditionFalse))
			Expect(ready.Reason).To(Equal(status.ReasonIncomplete))
			Expect(condition(cr, trustifyv1alpha1.ConditionHasErrors).Status).To(Equal(metav1.ConditionFalse))
			Expect(cr.Status.ObservedGeneration).To(BeZero())

			By("creating the server Deployment once the database is available")
			markDeploymentAvailable(ctx, c, name(constants.SuffixDBDeployment))
			result = reconcileOnce(ctx, r)
			Expect(result.RequeueAfter).To(BeNumerically(">=", constants.RequeueSafetyNetBase))

			server := &appsv1.Deployment{}
			Expect(exists(ctx, c, server, name(constants.SuffixServerDeployment))).To(BeTrue())
			Expect(server.Spec.Template.Annotations).To(HaveKey(constants.AnnotationConfigRevision))

			cr = fetchTrustify(ctx, c)
			Expect(condition(cr, trustifyv1alpha1.ConditionReady).Reason).To(Equal(status.ReasonNotReady))
			Expect(condition(cr, trustifyv1alpha1.ConditionRollingUpdate).Status).To(Equal(metav1.ConditionTrue))
			Expect(cr.Status.ObservedGeneration).To(Equal(int64(1)))

			By("reporting Ready once every Deployment is available")
			markDeploymentAvailable(ctx, c, name(constants.SuffixServerDeployment))
			markDeploymentAvailable(ctx, c, name(constants.SuffixUIDeployment))
			reconcileOnce(ctx, r)

			cr = fetchTrustify(ctx, c)
			Expect(condition(cr, trustifyv1alpha1.ConditionReady).Status).To(Equal(metav1.ConditionTrue))
			Expect(condition(cr, trustifyv1alpha1.ConditionRollingUpdate).Status).To(Equal(metav1.ConditionFalse))
		})

		It("does not rewrite objects or rotate generated material on an unchanged spec", func() {
			reconcileOnce(ctx, r)

			dbSecret := &corev1.Secret{}
			Expect(exists(ctx, c, dbSecret, name(constants.SuffixDBSecret))).To(BeTrue())
			tlsSecret := &corev1.Secret{}
			Expect(exists(ctx, c, tlsSecret, name(constants.SuffixServerTLS))).To(BeTrue())
			ui := &appsv1.Deployment{}
			Expect(exists(ctx, c, ui, name(constants.SuffixUIDeployment))).To(BeTrue())

			reconcileOnce(ctx, r)

			dbSecretAgain := &corev1.Secret{}
			Expect(exists(ctx, c, dbSecretAgain, name(constants.SuffixDBSecret))).To(BeTrue())
			Expect(dbSecretAgain.Data).To(Equal(dbSecret.Data))
			tlsSecretAgain := &corev1.Secret{}
			Expect(exists(ctx, c, tlsSecretAgain, name(constants.SuffixServerTLS))).To(BeTrue())
			Expect(tlsSecretAgain.Data).To(Equal(tlsSecret.Data))
			uiAgain := &appsv1.Deployment{}
			Expect(exists(ctx, c, uiAgain, name(constants.SuffixUIDeployment))).To(BeTrue())
			Expect(uiAgain.ResourceVersion).To(Equal(ui.ResourceVersion))
		})

		It("restores managed objects edited out of band", func() {
			reconcileOnce(ctx, r)

			ui := &appsv1.Deployment{}
			Expect(exists(ctx, c, ui, name(constants.SuffixUIDeployment))).To(BeTrue())
			ui.Spec.Template.Spec.Containers[0].Image = "evil/image:latest"
			Expect(c.Update(ctx, ui)).To(Succeed())

			cm := &corev1.ConfigMap{}
			Expect(exists(ctx, c, cm, name(constants.SuffixServerConfigMap))).To(BeTrue())
			original := cm.Data[constants.ConfigMapAuthKey]
			cm.Data[constants.ConfigMapAuthKey] = "tampered"
			Expect(c.Update(ctx, cm)).To(Succeed())

			reconcileOnce(ctx, r)

			Expect(exists(ctx, c, ui, name(constants.SuffixUIDeployment))).To(BeTrue())
			Expect(ui.Spec.Template.Spec.Containers[0].Image).To(Equal(config.DefaultSettings().UIImage))
			Expect(exists(ctx, c, cm, name(constants.SuffixServerConfigMap))).To(BeTrue())
			Expect(cm.Data[constants.ConfigMapAuthKey]).To(Equal(original))
		})

		It("labels and owns every managed object", func() {
			reconcileOnce(ctx, r)

			svc := &corev1.Service{}
			Expect(exists(ctx, c, svc, name(constants.SuffixServerService))).To(BeTrue())
			Expect(svc.Labels).To(HaveKeyWithValue(constants.LabelAppManagedBy, constants.LabelValueManagedBy))
			Expect(svc.Labels).To(HaveKeyWithValue(constants.LabelComponent, "server"))
			owner := metav1.GetControllerOf(svc)
			Expect(owner).NotTo(BeNil())
			Expect(owner.Name).To(Equal(testName))
		})

		It("removes the database objects when the database becomes external", func() {
			reconcileOnce(ctx, r)
			Expect(exists(ctx, c, &appsv1.Deployment{}, name(constants.SuffixDBDeployment))).To(BeTrue())

			cr := fetchTrustify(ctx, c)
			cr.Spec.DatabaseSpec = &trustifyv1alpha1.DatabaseSpec{ExternalDatabase: true, Host: "pg.example.com", Port: "5432", Name: "trustify"}
			Expect(c.Update(ctx, cr)).To(Succeed())

			reconcileOnce(ctx, r)

			Expect(exists(ctx, c, &corev1.Secret{}, name(constants.SuffixDBSecret))).To(BeFalse())
			Expect(exists(ctx, c, &corev1.PersistentVolumeClaim{}, name(constants.SuffixDBPVC))).To(BeFalse())
			Expect(exists(ctx, c, &appsv1.Deployment{}, name(constants.SuffixDBDeployment))).To(BeFalse())
			Expect(exists(ctx, c, &corev1.Service{}, name(constants.SuffixDBService))).To(BeFalse())
			Expect(exists(ctx, c, &appsv1.Deployment{}, name(constants.SuffixServerDeployment))).To(BeTrue())
		})
	})

	Context("with an embedded identity provider", func() {
		BeforeEach(func() {
			setup(trustifyv1alpha1.TrustifySpec{
				OIDCSpec: &trustifyv1alpha1.OIDCSpec{Enabled: true, Type: trustifyv1alpha1.OIDCProviderEmbedded},
			})
		})

		It("gates the server on Keycloak readiness and the realm import", func() {
			reconcileOnce(ctx, r)

			Expect(exists(ctx, c, &corev1.Secret{}, name(constants.SuffixKeycloakDBSecret))).To(BeTrue())
			Expect(exists(ctx, c, &appsv1.Deployment{}, name(constants.SuffixKeycloakDBDeployment))).To(BeTrue())
			Expect(exists(ctx, c, &corev1.Service{}, name(constants.SuffixKeycloakDBService))).To(BeTrue())
			Expect(exists(ctx, c, &corev1.Service{}, name(constants.SuffixKeycloakTLSService))).To(BeFalse())

			kc := &keycloakv2alpha1.Keycloak{}
			Expect(exists(ctx, c, kc, name(constants.SuffixKeycloak))).To(BeTrue())
			Expect(kc.Spec.Hostname).NotTo(BeNil())
			Expect(kc.Spec.Hostname.Hostname).To(Equal("http://demo-keycloak-service.apps.svc.cluster.local:8080/auth"))
			Expect(exists(ctx, c, &keycloakv2alpha1.KeycloakRealmImport{}, name(constants.SuffixKeycloakRealmImport))).To(BeTrue())

			ingress := &networkingv1.Ingress{}
			Expect(exists(ctx, c, ingress, name(constants.SuffixIngress))).To(BeTrue())
			Expect(ingress.Spec.Rules).NotTo(BeEmpty())
			Expect(ingress.Spec.Rules[0].HTTP.Paths).To(HaveLen(2))

			markDeploymentAvailable(ctx, c, name(constants.SuffixDBDeployment))
			reconcileOnce(ctx, r)
			Expect(exists(ctx, c, &appsv1.Deployment{}, name(constants.SuffixServerDeployment))).To(BeFalse())

			markKeycloakReady(ctx, c)
			reconcileOnce(ctx, r)
			Expect(exists(ctx, c, &appsv1.Deployment{}, name(constants.SuffixServerDeployment))).To(BeFalse())

			markRealmImportDone(ctx, c)
			reconcileOnce(ctx, r)
			Expect(exists(ctx, c, &appsv1.Deployment{}, name(constants.SuffixServerDeployment))).To(BeTrue())

			cm := &corev1.ConfigMap{}
			Expect(exists(ctx, c, cm, name(constants.SuffixServerConfigMap))).To(BeTrue())
			Expect(cm.Data[constants.ConfigMapAuthKey]).To(ContainSubstring("demo-keycloak-service:8080/auth/realms/trustify"))
		})

		It("removes the identity database when it becomes external and keeps Keycloak", func() {
			reconcileOnce(ctx, r)
			Expect(exists(ctx, c, &corev1.Secret{}, name(constants.SuffixKeycloakDBSecret))).To(BeTrue())
			Expect(exists(ctx, c, &corev1.PersistentVolumeClaim{}, name(constants.SuffixKeycloakDBPVC))).To(BeTrue())
			Expect(exists(ctx, c, &appsv1.Deployment{}, name(constants.SuffixKeycloakDBDeployment))).To(BeTrue())
			Expect(exists(ctx, c, &corev1.Service{}, name(constants.SuffixKeycloakDBService))).To(BeTrue())

			cr := fetchTrustify(ctx, c)
			cr.Spec.OIDCSpec.Embedded = &trustifyv1alpha1.EmbeddedOIDCSpec{
				DatabaseSpec: &trustifyv1alpha1.DatabaseSpec{
					ExternalDatabase: true,
					Host:             "keycloak-pg.example.com",
					Port:             "5432",
					Name:             "keycloak",
					UsernameSecret:   &corev1.SecretKeySelector{LocalObjectReference: corev1.LocalObjectReference{Name: "keycloak-pg"}, Key: "user"},
					PasswordSecret:   &corev1.SecretKeySelector{LocalObjectReference: corev1.LocalObjectReference{Name: "keycloak-pg"}, Key: "password"},
				},
			}
			Expect(c.Update(ctx, cr)).To(Succeed())
			reconcileOnce(ctx, r)

			Expect(exists(ctx, c, &corev1.Secret{}, name(constants.SuffixKeycloakDBSecret))).To(BeFalse())
			Expect(exists(ctx, c, &corev1.PersistentVolumeClaim{}, name(constants.SuffixKeycloakDBPVC))).To(BeFalse())
			Expect(exists(ctx, c, &appsv1.Deployment{}, name(constants.SuffixKeycloakDBDeployment))).To(BeFalse())
			Expect(exists(ctx, c, &corev1.Service{}, name(constants.SuffixKeycloakDBService))).To(BeFalse())

			kc := &keycloakv2alpha1.Keycloak{}
			Expect(exists(ctx, c, kc, name(constants.SuffixKeycloak))).To(BeTrue())
			Expect(kc.Spec.DB).NotTo(BeNil())
			Expect(kc.Spec.DB.Host).To(Equal("keycloak-pg.example.com"))
		})

		It("tears the identity provider down when authentication is disabled", func() {
			reconcileOnce(ctx, r)
			Expect(exists(ctx, c, &keycloakv2alpha1.Keycloak{}, name(constants.SuffixKeycloak))).To(BeTrue())

			cr := fetchTrustify(ctx, c)
			cr.Spec.OIDCSpec.Enabled = false
			Expect(c.Update(ctx, cr)).To(Succeed())
			reconcileOnce(ctx, r)

			Expect(exists(ctx, c, &keycloakv2alpha1.Keycloak{}, name(constants.SuffixKeycloak))).To(BeFalse())
			Expect(exists(ctx, c, &keycloakv2alpha1.KeycloakRealmImport{}, name(constants.SuffixKeycloakRealmImport))).To(BeFalse())
			Expect(exists(ctx, c, &appsv1.Deployment{}, name(constants.SuffixKeycloakDBDeployment))).To(BeFalse())
			Expect(exists(ctx, c, &corev1.Secret{}, name(constants.SuffixKeycloakDBSecret))).To(BeFalse())
		})
	})

	Context("with configuration errors", func() {
		It("reports an invalid identity spec once and keeps the UI and database converging", func() {
			setup(trustifyv1alpha1.TrustifySpec{
				OIDCSpec: &trustifyv1alpha1.OIDCSpec{Enabled: true, Type: trustifyv1alpha1.OIDCProviderExternal},
			})
			result := reconcileOnce(ctx, r)

			cr := fetchTrustify(ctx, c)
			hasErrors := condition(cr, trustifyv1alpha1.ConditionHasErrors)
			Expect(hasErrors.Status).To(Equal(metav1.ConditionTrue))
			Expect(hasErrors.Reason).To(Equal("ExternalOIDCMissing"))
			Expect(condition(cr, trustifyv1alpha1.ConditionReady).Reason).To(Equal("ExternalOIDCMissing"))

			Expect(exists(ctx, c, &corev1.ConfigMap{}, name(constants.SuffixServerConfigMap))).To(BeFalse())
			Expect(exists(ctx, c, &corev1.Service{}, name(constants.SuffixUIService))).To(BeTrue())

			ui := &appsv1.Deployment{}
			Expect(exists(ctx, c, ui, name(constants.SuffixUIDeployment))).To(BeTrue())
			Expect(ui.Spec.Template.Spec.Containers[0].Env).To(ContainElement(corev1.EnvVar{Name: "AUTH_REQUIRED", Value: "true"}))
			Expect(ui.Spec.Template.Spec.Containers[0].Env).NotTo(ContainElement(HaveField("Name", "OIDC_SERVER_URL")))
			Expect(exists(ctx, c, &networkingv1.Ingress{}, name(constants.SuffixIngress))).To(BeTrue())
			Expect(exists(ctx, c, &appsv1.Deployment{}, name(constants.SuffixDBDeployment))).To(BeTrue())
			Expect(result.RequeueAfter).To(BeZero())
		})

		It("fails only the HTTPRoute when the gateway reference is missing", func() {
			setup(trustifyv1alpha1.TrustifySpec{
				Gateway: &trustifyv1alpha1.GatewaySpec{Enabled: true},
			})
			reconcileOnce(ctx, r)

			cr := fetchTrustify(ctx, c)
			Expect(condition(cr, trustifyv1alpha1.ConditionHasErrors).Reason).To(Equal("GatewayRefMissing"))
			Expect(exists(ctx, c, &gatewayv1.HTTPRoute{}, name(constants.SuffixHTTPRoute))).To(BeFalse())
			Expect(exists(ctx, c, &networkingv1.Ingress{}, name(constants.SuffixIngress))).To(BeTrue())
		})

		It("creates the HTTPRoute when a gateway is referenced", func() {
			setup(trustifyv1alpha1.TrustifySpec{
				Gateway: &trustifyv1alpha1.GatewaySpec{Enabled: true, GatewayRef: trustifyv1alpha1.GatewayReference{Name: "public"}},
			})
			reconcileOnce(ctx, r)

			route := &gatewayv1.HTTPRoute{}
			Expect(exists(ctx, c, route, name(constants.SuffixHTTPRoute))).To(BeTrue())
			Expect(route.Spec.ParentRefs).To(HaveLen(1))
			Expect(string(route.Spec.ParentRefs[0].Name)).To(Equal("public"))
		})

		It("treats an object it does not control as foreign and leaves it alone", func() {
			foreign := &corev1.Service{
				ObjectMeta: metav1.ObjectMeta{Name: name(constants.SuffixUIService), Namespace: testNamespace},
				Spec:       corev1.ServiceSpec{Ports: []corev1.ServicePort{{Name: "web", Port: 80}}},
			}
			setup(trustifyv1alpha1.TrustifySpec{}, foreign)
			reconcileOnce(ctx, r)

			cr := fetchTrustify(ctx, c)
			Expect(condition(cr, trustifyv1alpha1.ConditionHasErrors).Reason).To(Equal("ForeignObject"))

			svc := &corev1.Service{}
			Expect(exists(ctx, c, svc, name(constants.SuffixUIService))).To(BeTrue())
			Expect(svc.OwnerReferences).To(BeEmpty())
			Expect(svc.Spec.Ports[0].Name).To(Equal("web"))
			Expect(exists(ctx, c, &appsv1.Deployment{}, name(constants.SuffixUIDeployment))).To(BeTrue())
		})
	})

	Context("with object storage", func() {
		spec := trustifyv1alpha1.TrustifySpec{
			StorageSpec: &trustifyv1alpha1.StorageSpec{
				Type: trustifyv1alpha1.StorageStrategyS3,
				S3:   &trustifyv1alpha1.S3StorageSpec{Bucket: "docs", Region: "eu-west-1", AccessKey: "AKID", SecretKey: "secret"},
			},
		}

		It("skips the server volume and reports an unusable bucket", func() {
			setup(spec)
			preflight := &stubPreflight{err: operatorerrors.WithReason(operatorerrors.WrapPermanentConfig(errors.New("access denied")), "BucketAccessDenied")}
			r.Preflight = preflight
			reconcileOnce(ctx, r)

			Expect(preflight.calls).To(Equal(1))
			Expect(exists(ctx, c, &corev1.PersistentVolumeClaim{}, name(constants.SuffixServerPVC))).To(BeFalse())
			cr := fetchTrustify(ctx, c)
			Expect(condition(cr, trustifyv1alpha1.ConditionHasErrors).Reason).To(Equal("BucketAccessDenied"))
			Expect(exists(ctx, c, &corev1.Service{}, name(constants.SuffixServerService))).To(BeTrue())
		})

		It("treats an unreachable bucket as incomplete", func() {
			setup(spec)
			r.Preflight = &stubPreflight{err: operatorerrors.WrapTransientConnection(errors.New("dial tcp: i/o timeout"))}
			result := reconcileOnce(ctx, r)

			Expect(result.RequeueAfter).To(Equal(constants.RequeueShort))
			cr := fetchTrustify(ctx, c)
			Expect(condition(cr, trustifyv1alpha1.ConditionHasErrors).Status).To(Equal(metav1.ConditionFalse))
		})
	})
})
