package metrics

import (
	"strconv"
	"time"

	"github.com/marocz/ece-exporter/internal/ece"
)

// Options carries the normalization inputs that do not come from the upstream
// document itself.
type Options struct {
	// ClusterName is the installation-level common_cluster_name label applied
	// to allocator- and proxy-level series. Empty means the label is omitted.
	ClusterName string

	// ERUCost is the yearly ERU cost in cents used for the monthly cost
	// family. Zero disables that family.
	ERUCost uint64

	// Now is the clock input for the month-to-date cost computation.
	Now time.Time
}

// groupKey identifies one (zone, cluster name) instance group.
type groupKey struct {
	zone string
	name string
}

// NormalizeAllocators flattens an allocator document into its metric families.
//
// The cluster_healthy label is derived here, not read from upstream: all
// instances sharing a logical cluster name — across every allocator in the
// document — are grouped first, and each instance row is annotated with the
// AND of its whole group's health. A group with no instances emits no rows,
// so it is vacuously healthy.
func NormalizeAllocators(doc *ece.AllocatorsDocument, opts Options) MetricSet {
	clusterHealthy := make(map[string]bool)
	groupCounts := make(map[groupKey]float64)
	var groupOrder []groupKey

	for _, zone := range doc.Zones {
		for _, alloc := range zone.Allocators {
			for _, inst := range alloc.Instances {
				name := orNull(inst.ClusterName)

				healthy, seen := clusterHealthy[name]
				if !seen {
					healthy = true
				}
				clusterHealthy[name] = healthy && boolOrFalse(inst.Healthy)

				key := groupKey{zone: zone.ZoneID, name: name}
				if _, seen := groupCounts[key]; !seen {
					groupOrder = append(groupOrder, key)
				}
				groupCounts[key]++
			}
		}
	}

	var (
		allocInfo   = Family{Name: FamAllocatorInfo, Help: "Allocator presence and status; value is always 1."}
		memTotal    = Family{Name: FamAllocatorMemTotal, Help: "Allocator memory capacity in megabytes."}
		memUsed     = Family{Name: FamAllocatorMemUsed, Help: "Allocator memory in use in megabytes."}
		instInfo    = Family{Name: FamInstanceInfo, Help: "Instance presence and status; value is always 1."}
		nodeMemory  = Family{Name: FamInstanceNodeMemory, Help: "Instance node memory in megabytes."}
		monthlyCost = Family{Name: FamInstanceMonthlyCost, Help: "Month-to-date instance cost in cents, derived from node memory and the configured yearly ERU cost."}
		plan        = Family{Name: FamInstancePlan, Help: "Pending configuration change for an instance; value is always 1. Instances without a plan emit no row."}
		instTotal   = Family{Name: FamInstancesTotal, Help: "Number of instances per zone and cluster."}
	)

	centsPerGB := monthToDateCentsPerGB(opts.ERUCost, opts.Now)

	for _, zone := range doc.Zones {
		for _, alloc := range zone.Allocators {
			base := []Label{
				{"zone", zone.ZoneID},
				{"ip", alloc.PublicHostname},
			}
			base = withCommonName(base, opts.ClusterName)

			infoLabels := withCommonName([]Label{
				{"zone", zone.ZoneID},
				{"ip", alloc.PublicHostname},
				{"healthy", boolStr(alloc.Status.Healthy)},
				{"connected", boolStr(alloc.Status.Connected)},
				{"maintenance", boolStr(alloc.Status.MaintenanceMode)},
			}, opts.ClusterName)
			allocInfo.Rows = append(allocInfo.Rows, Row{
				Labels: tagged(infoLabels, alloc.Metadata),
				Value:  1,
			})
			memTotal.Rows = append(memTotal.Rows, Row{
				Labels: tagged(base, alloc.Metadata),
				Value:  float64(alloc.Capacity.Memory.Total),
			})
			memUsed.Rows = append(memUsed.Rows, Row{
				Labels: tagged(base, alloc.Metadata),
				Value:  float64(alloc.Capacity.Memory.Used),
			})

			for _, inst := range alloc.Instances {
				name := orNull(inst.ClusterName)

				instInfo.Rows = append(instInfo.Rows, Row{
					Labels: tagged([]Label{
						{"zone", zone.ZoneID},
						{"ip", alloc.PublicHostname},
						{"name", name},
						{"cluster_type", inst.ClusterType},
						{"cluster_id", inst.ClusterID},
						{"configuration_id", inst.InstanceConfigurationID},
						{"deployment_id", orNull(inst.DeploymentID)},
						{"healthy", boolStr(boolOrFalse(inst.Healthy))},
						{"cluster_healthy", boolStr(clusterHealthy[name])},
						{"moving", boolStr(boolOrFalse(inst.Moving))},
					}, alloc.Metadata),
					Value: 1,
				})

				instLabels := []Label{
					{"zone", zone.ZoneID},
					{"ip", alloc.PublicHostname},
					{"name", name},
					{"cluster_type", inst.ClusterType},
					{"cluster_id", inst.ClusterID},
				}
				nodeMemory.Rows = append(nodeMemory.Rows, Row{
					Labels: tagged(instLabels, alloc.Metadata),
					Value:  float64(inst.NodeMemory),
				})

				if opts.ERUCost > 0 {
					// Cost pro-rated by cluster size: node memory in GB over
					// the 64 GB ERU unit, times the month-to-date cents/GB.
					cost := float64(inst.NodeMemory) / 1024.0 / 64.0 * centsPerGB
					monthlyCost.Rows = append(monthlyCost.Rows, Row{
						Labels: tagged(instLabels, alloc.Metadata),
						Value:  cost,
					})
				}

				if inst.PlansInfo != nil {
					plan.Rows = append(plan.Rows, Row{
						Labels: tagged([]Label{
							{"zone", zone.ZoneID},
							{"allocator", alloc.PublicHostname},
							{"name", name},
							{"common_cluster_name", name},
							{"pending", boolStr(inst.PlansInfo.Pending)},
							{"version", orNull(inst.PlansInfo.Version)},
							{"zone_count", uintStr(inst.PlansInfo.ZoneCount)},
							{"cluster_type", inst.ClusterType},
						}, alloc.Metadata),
						Value: 1,
					})
				}
			}
		}
	}

	for _, key := range groupOrder {
		instTotal.Rows = append(instTotal.Rows, Row{
			Labels: []Label{
				{"zone", key.zone},
				{"common_cluster_name", key.name},
			},
			Value: groupCounts[key],
		})
	}

	set := MetricSet{allocInfo, memTotal, memUsed, instInfo, nodeMemory}
	if opts.ERUCost > 0 {
		set = append(set, monthlyCost)
	}
	return append(set, plan, instTotal)
}

// NormalizeProxies flattens a proxy document into its single metric family.
func NormalizeProxies(doc *ece.ProxiesDocument, opts Options) MetricSet {
	proxyInfo := Family{Name: FamProxyInfo, Help: "Proxy presence and status; value is always 1."}

	for _, p := range doc.Proxies {
		proxyInfo.Rows = append(proxyInfo.Rows, Row{
			Labels: withCommonName([]Label{
				{"zone", p.Zone},
				{"hostname", p.PublicHostname},
				{"proxy_id", p.ProxyID},
				{"proxy_ip", orNull(p.ProxyIP)},
				{"healthy", boolStr(p.Healthy)},
			}, opts.ClusterName),
			Value: 1,
		})
	}

	return MetricSet{proxyInfo}
}

// ClusterUpFamily reports whether the cycle serving this scrape fetched both
// upstream resources successfully.
func ClusterUpFamily(up bool) Family {
	v := 0.0
	if up {
		v = 1.0
	}
	return Family{
		Name: FamClusterUp,
		Help: "1 when the last collection cycle fetched both allocators and proxies successfully.",
		Rows: []Row{{Value: v}},
	}
}

// monthToDateCentsPerGB converts a yearly ERU cost into the cents accrued per
// gigabyte since the start of the current month.
func monthToDateCentsPerGB(eruCost uint64, now time.Time) float64 {
	if eruCost == 0 {
		return 0
	}
	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	elapsed := now.Sub(monthStart).Seconds()
	return float64(eruCost) * 100.0 / 31536000.0 * elapsed
}

// tagged appends the allocator metadata tags to a copy of labels.
func tagged(labels []Label, tags []ece.KeyValue) []Label {
	out := make([]Label, 0, len(labels)+len(tags))
	out = append(out, labels...)
	for _, t := range tags {
		out = append(out, Label{Name: t.Key, Value: t.Value})
	}
	return out
}

// withCommonName appends the installation-level common_cluster_name label
// when one is configured. An empty label value is equivalent to an absent
// label in the exposition format, so unset names are simply skipped.
func withCommonName(labels []Label, name string) []Label {
	if name == "" {
		return labels
	}
	return append(labels, Label{Name: "common_cluster_name", Value: name})
}

func boolStr(b bool) string { return strconv.FormatBool(b) }

func boolOrFalse(b *bool) bool { return b != nil && *b }

func orNull(s *string) string {
	if s == nil {
		return "null"
	}
	return *s
}

func uintStr(v *uint64) string {
	if v == nil {
		return "0"
	}
	return strconv.FormatUint(*v, 10)
}
