package ece

// AllocatorsDocument is the response of
// GET api/v1/platform/infrastructure/allocators.
type AllocatorsDocument struct {
	Zones []Zone `json:"zones"`
}

// Zone groups the allocators of one availability zone.
type Zone struct {
	ZoneID     string      `json:"zone_id"`
	Allocators []Allocator `json:"allocators"`
}

// Allocator is one host running instance containers.
type Allocator struct {
	AllocatorID    string          `json:"allocator_id"`
	ZoneID         string          `json:"zone_id"`
	HostIP         string          `json:"host_ip"`
	PublicHostname string          `json:"public_hostname"`
	Status         AllocatorStatus `json:"status"`
	Capacity       Capacity        `json:"capacity"`
	Instances      []Instance      `json:"instances"`
	Metadata       []KeyValue      `json:"metadata"`
}

// AllocatorStatus holds the allocator's connectivity and health flags.
type AllocatorStatus struct {
	Connected       bool `json:"connected"`
	Healthy         bool `json:"healthy"`
	MaintenanceMode bool `json:"maintenance_mode"`
}

// Capacity holds the allocator's resource capacity.
type Capacity struct {
	Memory Memory `json:"memory"`
}

// Memory is a total/used pair in megabytes.
type Memory struct {
	Total uint64 `json:"total"`
	Used  uint64 `json:"used"`
}

// Instance is one deployed container belonging to a logical cluster.
// Fields that older ECE versions omit are pointers; the normalizer renders
// absent values as the label value "null".
type Instance struct {
	ClusterType             string     `json:"cluster_type"`
	ClusterID               string     `json:"cluster_id"`
	ClusterName             *string    `json:"cluster_name"`
	InstanceName            string     `json:"instance_name"`
	NodeMemory              uint64     `json:"node_memory"`
	Healthy                 *bool      `json:"healthy"`
	InstanceConfigurationID string     `json:"instance_configuration_id"`
	DeploymentID            *string    `json:"deployment_id"`
	Moving                  *bool      `json:"moving"`
	PlansInfo               *PlansInfo `json:"plans_info"`
}

// PlansInfo describes a pending or in-flight configuration change for an
// instance. Instances without an active plan carry no PlansInfo at all.
type PlansInfo struct {
	Pending   bool    `json:"pending"`
	Version   *string `json:"version"`
	ZoneCount *uint64 `json:"zone_count"`
}

// KeyValue is one allocator metadata tag.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ProxiesDocument is the response of
// GET api/v1/platform/infrastructure/proxies.
type ProxiesDocument struct {
	ProxiesCount uint64  `json:"proxies_count"`
	Proxies      []Proxy `json:"proxies"`
}

// Proxy is one request-routing node.
type Proxy struct {
	ProxyID        string  `json:"proxy_id"`
	ProxyIP        *string `json:"proxy_ip"`
	PublicHostname string  `json:"public_hostname"`
	Healthy        bool    `json:"healthy"`
	Zone           string  `json:"zone"`
}
