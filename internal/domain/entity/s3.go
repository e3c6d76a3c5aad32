package entity

// Tag é um par chave/valor aplicado a um objeto S3.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// LifecycleRule descreve a regra gerenciada aplicada ao prefixo do objeto
// sinalizado: versões não-correntes vão para GLACIER após TransitionDays e
// expiram após ExpirationDays.
type LifecycleRule struct {
	ID             string `json:"id"`
	Prefix         string `json:"prefix"`
	Enabled        bool   `json:"enabled"`
	TransitionDays int32  `json:"transition_days"`
	StorageClass   string `json:"storage_class"`
	ExpirationDays int32  `json:"expiration_days"`
}

// Equal compara duas regras campo a campo.
func (r LifecycleRule) Equal(o LifecycleRule) bool {
	return r == o
}

// NotificationTarget é um destino de notificação de eventos de um bucket
// (Lambda, SQS ou SNS).
type NotificationTarget struct {
	ID      string       `json:"id,omitempty"`
	Kind    string       `json:"kind"` // lambda, queue ou topic
	Arn     string       `json:"arn"`
	Events  []string     `json:"events"`
	Filters []FilterRule `json:"filters,omitempty"`
}

// FilterRule filtra notificações por prefixo ou sufixo da chave.
type FilterRule struct {
	Name  string `json:"name"` // prefix ou suffix
	Value string `json:"value"`
}

// NotificationConfig é o conjunto completo de notificações de um bucket.
// Uma configuração vazia remove todas as assinaturas.
type NotificationConfig struct {
	Targets     []NotificationTarget `json:"targets,omitempty"`
	EventBridge bool                 `json:"event_bridge,omitempty"`
}

// IsEmpty indica se a configuração não contém nenhum destino.
func (c NotificationConfig) IsEmpty() bool {
	return len(c.Targets) == 0 && !c.EventBridge
}

// BucketStatus agrega as notificações e as regras gerenciadas de um bucket
// para o comando status.
type BucketStatus struct {
	Bucket         string             `json:"bucket"`
	Notifications  NotificationConfig `json:"notifications"`
	ManagedRules   []LifecycleRule    `json:"managed_rules"`
	TotalRuleCount int                `json:"total_rule_count"`
}
