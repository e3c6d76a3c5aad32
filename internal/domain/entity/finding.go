package entity

import "strings"

// ObjectRef identifica um objeto S3 (versão opcional).
type ObjectRef struct {
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	VersionID string `json:"version_id,omitempty"`
}

func (o ObjectRef) String() string {
	s := "s3://" + o.Bucket + "/" + o.Key
	if o.VersionID != "" {
		s += "?versionId=" + o.VersionID
	}
	return s
}

// FindingEvent é o envelope do EventBridge entregue pelo Firehose.
// Alguns destinos gravam apenas o detail; Normalize trata os dois formatos.
type FindingEvent struct {
	Version    string         `json:"version,omitempty"`
	ID         string         `json:"id,omitempty"`
	DetailType string         `json:"detail-type,omitempty"`
	Source     string         `json:"source,omitempty"`
	Account    string         `json:"account,omitempty"`
	Region     string         `json:"region,omitempty"`
	Time       string         `json:"time,omitempty"`
	Detail     *FindingDetail `json:"detail,omitempty"`

	// Campos de um finding "cru" (sem envelope).
	FindingDetail
}

// FindingDetail segue o schema de findings do Macie (apenas os campos usados).
type FindingDetail struct {
	ID                string             `json:"id,omitempty"`
	Type              string             `json:"type,omitempty"`
	Category          string             `json:"category,omitempty"`
	Severity          *FindingSeverity   `json:"severity,omitempty"`
	ResourcesAffected *ResourcesAffected `json:"resourcesAffected,omitempty"`
}

// FindingSeverity contém a pontuação (1..3) e a descrição (Low/Medium/High).
type FindingSeverity struct {
	Score       int    `json:"score"`
	Description string `json:"description"`
}

// ResourcesAffected aponta para o bucket/objeto sinalizado pelo Macie.
type ResourcesAffected struct {
	S3Bucket *AffectedBucket `json:"s3Bucket,omitempty"`
	S3Object *AffectedObject `json:"s3Object,omitempty"`
}

type AffectedBucket struct {
	Name string `json:"name"`
	Arn  string `json:"arn,omitempty"`
}

type AffectedObject struct {
	Key       string `json:"key"`
	VersionID string `json:"versionId,omitempty"`
	Path      string `json:"path,omitempty"`
}

// detail retorna o detail do envelope ou, na ausência dele, o finding cru.
func (e FindingEvent) detail() FindingDetail {
	if e.Detail != nil {
		return *e.Detail
	}
	d := e.FindingDetail
	// sem envelope o "id" de topo é o id do próprio finding
	d.ID = e.ID
	return d
}

// Finding é a visão normalizada de um registro de finding.
type Finding struct {
	ID          string    `json:"id,omitempty"`
	Type        string    `json:"type"`
	Severity    Severity  `json:"severity"`
	RawSeverity string    `json:"raw_severity,omitempty"`
	Target      ObjectRef `json:"target"`
}

// HasTarget indica se o finding aponta para um objeto concreto.
func (f Finding) HasTarget() bool {
	return f.Target.Bucket != "" && f.Target.Key != ""
}

// Normalize converte o evento bruto em Finding. A descrição tem precedência
// sobre a pontuação; sem descrição usa-se o score.
func (e FindingEvent) Normalize() Finding {
	d := e.detail()
	f := Finding{
		ID:       d.ID,
		Type:     d.Type,
		Severity: SeverityUnknown,
	}
	if d.Severity != nil {
		if strings.TrimSpace(d.Severity.Description) != "" {
			f.RawSeverity = d.Severity.Description
			f.Severity = ParseSeverity(d.Severity.Description)
		} else {
			f.Severity = SeverityFromScore(d.Severity.Score)
		}
	}
	if ra := d.ResourcesAffected; ra != nil {
		if ra.S3Bucket != nil {
			f.Target.Bucket = ra.S3Bucket.Name
		}
		if ra.S3Object != nil {
			f.Target.Key = ra.S3Object.Key
			f.Target.VersionID = ra.S3Object.VersionID
		}
	}
	return f
}
