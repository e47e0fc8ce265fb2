package model

// EntityType classifies an extracted entity.
type EntityType string

const (
	EntityPerson       EntityType = "PERSON"
	EntityOrganization EntityType = "ORGANIZATION"
	EntityLocation     EntityType = "LOCATION"
	EntityEvent        EntityType = "EVENT"
	EntityDate         EntityType = "DATE"
	EntityDocument     EntityType = "DOCUMENT"
	EntityPhone        EntityType = "PHONE"
	EntityEmail        EntityType = "EMAIL"
	EntityMoney        EntityType = "MONEY"
	EntityLegal        EntityType = "LEGAL"
	EntityNumber       EntityType = "NUMBER"
	EntityOther        EntityType = "OTHER"
	EntityUnknown      EntityType = "UNKNOWN"
)

var knownEntityTypes = map[EntityType]bool{
	EntityPerson:       true,
	EntityOrganization: true,
	EntityLocation:     true,
	EntityEvent:        true,
	EntityDate:         true,
	EntityDocument:     true,
	EntityPhone:        true,
	EntityEmail:        true,
	EntityMoney:        true,
	EntityLegal:        true,
	EntityNumber:       true,
	EntityOther:        true,
	EntityUnknown:      true,
}

// Known reports whether t is part of the entity type enumeration.
func (t EntityType) Known() bool {
	return knownEntityTypes[t]
}

// NormalizeType maps an arbitrary type string onto the enumeration,
// falling back to UNKNOWN for values no extractor of ours produces.
func NormalizeType(s string) EntityType {
	if s == "" {
		return EntityUnknown
	}
	t := EntityType(s)
	if !t.Known() {
		return EntityUnknown
	}
	return t
}

// Entity is one extracted entity mention, produced by an extraction
// collaborator and consumed by the graph store. The ID is assigned by
// the extractor and must be unique across a corpus.
type Entity struct {
	ID             string                 `json:"id"`
	Type           EntityType             `json:"type"`
	Text           string                 `json:"text"`
	Confidence     float64                `json:"confidence"`
	SourceDocument string                 `json:"source_document,omitempty"`
	SourceChunk    string                 `json:"source_chunk,omitempty"`
	PageNumber     int                    `json:"page_number,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// Relationship is one asserted relationship between two entities.
// RelationshipType is a free-form label such as "works_at".
type Relationship struct {
	ID               string                 `json:"id,omitempty"`
	SourceID         string                 `json:"source_id"`
	TargetID         string                 `json:"target_id"`
	RelationshipType string                 `json:"relationship_type"`
	Confidence       float64                `json:"confidence"`
	Evidence         string                 `json:"evidence,omitempty"`
	SourceDocument   string                 `json:"source_document,omitempty"`
	SourceChunk      string                 `json:"source_chunk,omitempty"`
	PageNumber       int                    `json:"page_number,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// Stats summarizes the current state of a knowledge graph.
type Stats struct {
	TotalNodes           int            `json:"total_nodes"`
	TotalEdges           int            `json:"total_edges"`
	NodeTypes            map[string]int `json:"node_types"`
	RelationshipTypes    map[string]int `json:"relationship_types"`
	AvgDegree            float64        `json:"avg_degree"`
	Density              float64        `json:"density"`
	ConnectedComponents  int            `json:"connected_components"`
	LargestComponentSize int            `json:"largest_component_size"`
}
