package metrics

// Exported metric family names. All families are gauges.
const (
	FamAllocatorInfo       = "ece_allocator_info"
	FamAllocatorMemTotal   = "ece_allocator_memory_total"
	FamAllocatorMemUsed    = "ece_allocator_memory_used"
	FamInstanceInfo        = "ece_allocator_instance_info"
	FamInstanceNodeMemory  = "ece_allocator_instance_node_memory"
	FamInstanceMonthlyCost = "ece_allocator_instance_monthly_cost"
	FamInstancePlan        = "ece_allocator_instance_plan"
	FamInstancesTotal      = "ece_allocator_instances_total"
	FamProxyInfo           = "ece_proxy_info"
	FamClusterUp           = "ece_cluster_up"
)

// Label is one name/value pair on a metric row.
type Label struct {
	Name  string
	Value string
}

// Row is one time series sample: an ordered label set and its value.
type Row struct {
	Labels []Label
	Value  float64
}

// Family is one named metric family with its help text and rows.
type Family struct {
	Name string
	Help string
	Rows []Row
}

// MetricSet is the ordered output of one normalization pass. Callers must
// treat a MetricSet as immutable once produced.
type MetricSet []Family

// Family returns the family with the given name, or nil.
func (s MetricSet) Family(name string) *Family {
	for i := range s {
		if s[i].Name == name {
			return &s[i]
		}
	}
	return nil
}

// Get returns the value of a label by name, or "" when absent.
func (r Row) Get(name string) string {
	for _, l := range r.Labels {
		if l.Name == name {
			return l.Value
		}
	}
	return ""
}
