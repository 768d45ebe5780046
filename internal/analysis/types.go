// Package analysis defines the normalized description of a codebase that
// parsers hand to the documentation engine, and merges the partial
// descriptions produced by independent parsers into one canonical graph.
package analysis

import "time"

// EdgeKind classifies a dependency between two symbols.
type EdgeKind string

const (
	EdgeImport    EdgeKind = "import"
	EdgeInject    EdgeKind = "inject"
	EdgeInherit   EdgeKind = "inherit"
	EdgeImplement EdgeKind = "implement"
	EdgeUse       EdgeKind = "use"
)

// DependencyEdge is a directed edge between two symbol names.
type DependencyEdge struct {
	Source string   `json:"source" yaml:"source"`
	Target string   `json:"target" yaml:"target"`
	Kind   EdgeKind `json:"kind" yaml:"kind"`
}

// RelationKind is the cardinality of an entity relation.
type RelationKind string

const (
	OneToOne   RelationKind = "OneToOne"
	OneToMany  RelationKind = "OneToMany"
	ManyToOne  RelationKind = "ManyToOne"
	ManyToMany RelationKind = "ManyToMany"
)

// Column describes one persisted field of an entity.
type Column struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	StorageName string `json:"storageName,omitempty" yaml:"storageName,omitempty"`
	Nullable    bool   `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	PrimaryKey  bool   `json:"primaryKey,omitempty" yaml:"primaryKey,omitempty"`
	Unique      bool   `json:"unique,omitempty" yaml:"unique,omitempty"`
}

// Relation links an entity to another entity by name.
type Relation struct {
	Kind       RelationKind `json:"kind" yaml:"kind"`
	Target     string       `json:"target" yaml:"target"`
	JoinColumn string       `json:"joinColumn,omitempty" yaml:"joinColumn,omitempty"`
	MappedBy   string       `json:"mappedBy,omitempty" yaml:"mappedBy,omitempty"`
	Eager      bool         `json:"eager,omitempty" yaml:"eager,omitempty"`
}

// Index describes a storage index declared on an entity.
type Index struct {
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Columns []string `json:"columns" yaml:"columns"`
	Unique  bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
}

// Entity is a persisted data model.
type Entity struct {
	Name        string     `json:"name" yaml:"name"`
	TableName   string     `json:"tableName,omitempty" yaml:"tableName,omitempty"`
	StorageKind string     `json:"storageKind,omitempty" yaml:"storageKind,omitempty"` // e.g. "JPA", "SQLAlchemy"
	FilePath    string     `json:"filePath,omitempty" yaml:"filePath,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Columns     []Column   `json:"columns,omitempty" yaml:"columns,omitempty"`
	Relations   []Relation `json:"relations,omitempty" yaml:"relations,omitempty"`
	Indexes     []Index    `json:"indexes,omitempty" yaml:"indexes,omitempty"`
}

// Service is a unit of business logic with injectable dependencies.
type Service struct {
	Name         string   `json:"name" yaml:"name"`
	FilePath     string   `json:"filePath,omitempty" yaml:"filePath,omitempty"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Methods      []string `json:"methods,omitempty" yaml:"methods,omitempty"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// TypeKind classifies a type definition.
type TypeKind string

const (
	KindType      TypeKind = "type"
	KindInterface TypeKind = "interface"
	KindEnum      TypeKind = "enum"
	KindDTO       TypeKind = "dto"
	KindInput     TypeKind = "input"
	KindResponse  TypeKind = "response"
)

// Field is a member of a type definition.
type Field struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// TypeDef is a declared type, interface, enum or transfer object.
type TypeDef struct {
	Name        string   `json:"name" yaml:"name"`
	Kind        TypeKind `json:"kind" yaml:"kind"`
	FilePath    string   `json:"filePath,omitempty" yaml:"filePath,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field  `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Protocol is the transport an endpoint is exposed on.
type Protocol string

const (
	ProtocolREST      Protocol = "rest"
	ProtocolGraphQL   Protocol = "graphql"
	ProtocolWebSocket Protocol = "websocket"
)

// Param is one input of an endpoint.
type Param struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	In       string `json:"in,omitempty" yaml:"in,omitempty"` // path, query, body, header, argument
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
}

// Endpoint is an externally reachable operation. REST endpoints are located
// by HTTPMethod+Path, GraphQL and WebSocket endpoints by
// OperationType+FieldName.
type Endpoint struct {
	Protocol      Protocol `json:"protocol" yaml:"protocol"`
	HTTPMethod    string   `json:"httpMethod,omitempty" yaml:"httpMethod,omitempty"`
	Path          string   `json:"path,omitempty" yaml:"path,omitempty"`
	OperationType string   `json:"operationType,omitempty" yaml:"operationType,omitempty"`
	FieldName     string   `json:"fieldName,omitempty" yaml:"fieldName,omitempty"`
	Handler       string   `json:"handler,omitempty" yaml:"handler,omitempty"`
	HandlerClass  string   `json:"handlerClass,omitempty" yaml:"handlerClass,omitempty"`
	FilePath      string   `json:"filePath,omitempty" yaml:"filePath,omitempty"`
	Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
	Params        []Param  `json:"params,omitempty" yaml:"params,omitempty"`
	ReturnType    string   `json:"returnType,omitempty" yaml:"returnType,omitempty"`
	ServiceRef    string   `json:"serviceRef,omitempty" yaml:"serviceRef,omitempty"`
}

// Locator returns the protocol-specific address of the endpoint, e.g.
// "GET /users" or "query users".
func (e Endpoint) Locator() string {
	switch e.Protocol {
	case ProtocolGraphQL, ProtocolWebSocket:
		if e.OperationType == "" {
			return e.FieldName
		}
		return e.OperationType + " " + e.FieldName
	default:
		if e.HTTPMethod == "" {
			return e.Path
		}
		return e.HTTPMethod + " " + e.Path
	}
}

// ChangelogEntry is one released version and its notable changes.
type ChangelogEntry struct {
	Version string   `json:"version" yaml:"version"`
	Date    string   `json:"date,omitempty" yaml:"date,omitempty"`
	Changes []string `json:"changes,omitempty" yaml:"changes,omitempty"`
}

// Partial is the contribution of a single parser or file group.
type Partial struct {
	Parser        string           `json:"parser,omitempty" yaml:"parser,omitempty"`
	SchemaVersion string           `json:"schemaVersion,omitempty" yaml:"schemaVersion,omitempty"`
	ProjectName   string           `json:"projectName,omitempty" yaml:"projectName,omitempty"`
	Endpoints     []Endpoint       `json:"endpoints,omitempty" yaml:"endpoints,omitempty"`
	Entities      []Entity         `json:"entities,omitempty" yaml:"entities,omitempty"`
	Services      []Service        `json:"services,omitempty" yaml:"services,omitempty"`
	Types         []TypeDef        `json:"types,omitempty" yaml:"types,omitempty"`
	Dependencies  []DependencyEdge `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Changelog     []ChangelogEntry `json:"changelog,omitempty" yaml:"changelog,omitempty"`
}

// Summary holds per-category record counts of a merged graph.
type Summary struct {
	Endpoints    int `json:"endpoints"`
	Entities     int `json:"entities"`
	Services     int `json:"services"`
	Types        int `json:"types"`
	Dependencies int `json:"dependencies"`
	Files        int `json:"files"`
}

// Metadata records where a merged graph came from.
type Metadata struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Parsers     []string  `json:"parsers,omitempty"`
	ProjectName string    `json:"projectName,omitempty"`
}
