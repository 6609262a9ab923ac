package kube

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"ml-audit-platform/internal/core/domain"
	ports "ml-audit-platform/internal/core/ports/output"
)

// Keys names the ConfigMap entries holding each artifact.
type Keys struct {
	Model  string
	Scaler string
	Info   string
}

type configMapStore struct {
	client    kubernetes.Interface
	namespace string
	name      string
	keys      Keys
}

// NewConfigMapStore reads artifacts from one ConfigMap. Entries may live in either
// Data or BinaryData.
func NewConfigMapStore(client kubernetes.Interface, namespace, name string, keys Keys) ports.ArtifactStore {
	if namespace == "" {
		namespace = "model-serving"
	}
	return &configMapStore{client: client, namespace: namespace, name: name, keys: keys}
}

func (s *configMapStore) Fetch(ctx context.Context) (*ports.RawArtifacts, error) {
	cm, err := s.client.CoreV1().ConfigMaps(s.namespace).Get(ctx, s.name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, fmt.Errorf("%w: configmap %s/%s", domain.ErrArtifactNotFound, s.namespace, s.name)
	}
	if err != nil {
		return nil, fmt.Errorf("get configmap %s/%s: %w", s.namespace, s.name, err)
	}

	model := entry(cm, s.keys.Model)
	if model == nil {
		return nil, fmt.Errorf("%w: key %q missing from configmap %s/%s",
			domain.ErrArtifactNotFound, s.keys.Model, s.namespace, s.name)
	}

	return &ports.RawArtifacts{
		Model:  model,
		Scaler: entry(cm, s.keys.Scaler),
		Info:   entry(cm, s.keys.Info),
		Origin: fmt.Sprintf("configmap://%s/%s", s.namespace, s.name),
	}, nil
}

func entry(cm *corev1.ConfigMap, key string) []byte {
	if key == "" {
		return nil
	}
	if v, ok := cm.Data[key]; ok {
		return []byte(v)
	}
	if v, ok := cm.BinaryData[key]; ok {
		return v
	}
	return nil
}
