package slurm

import "math"

// Utilization describes how a resource of a node or partition is used.
// Allocated, Blocked and Unavailable are disjoint amounts of Capacity;
// Utilized overlays the allocated part.
type Utilization struct {
	// Utilized is actual usage. It may exceed Allocated due to system
	// processes.
	Utilized float64
	// Allocated is the amount allocated to jobs.
	Allocated float64
	// Blocked cannot be allocated because a linked resource is exhausted,
	// e.g. CPUs whose default memory has been allocated already.
	Blocked float64
	// Unavailable is lost to nodes that are down or otherwise unusable.
	Unavailable float64
	Capacity    float64
}

// Available returns the amount that can still be allocated.
func (u Utilization) Available() float64 {
	return math.Max(0, u.Capacity-u.Allocated-u.Blocked-u.Unavailable)
}

// Add returns the field-wise sum of u and other.
func (u Utilization) Add(other Utilization) Utilization {
	return Utilization{
		Utilized:    u.Utilized + other.Utilized,
		Allocated:   u.Allocated + other.Allocated,
		Blocked:     u.Blocked + other.Blocked,
		Unavailable: u.Unavailable + other.Unavailable,
		Capacity:    u.Capacity + other.Capacity,
	}
}

// Sum adds utilizations field by field.
func Sum(values ...Utilization) Utilization {
	var total Utilization
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// markUnavailable turns the whole capacity into unavailable.
func (u Utilization) markUnavailable() Utilization {
	return Utilization{Unavailable: u.Capacity, Capacity: u.Capacity}
}

// MemPerCPU returns the default memory per CPU used to compute blocked
// CPUs: override when positive, else the node's per-CPU default, else 0.
func (n *Node) MemPerCPU(override int) int {
	if override > 0 {
		return override
	}
	if n.DefMem.Kind == PerCPU {
		return n.DefMem.MB
	}
	return 0
}

// CPUUtilization returns the CPU usage of the node. CPUs are blocked when
// allocated memory exceeds what the allocated CPUs account for at
// memPerCPU MB each.
func (n *Node) CPUUtilization(memPerCPU int) Utilization {
	allocated := float64(n.CPUState.Allocated)
	utilized := 0.0
	if n.CPULoad != nil {
		utilized = math.Min(*n.CPULoad, allocated)
	}

	blocked := 0.0
	if memPerCPU > 0 {
		free := float64(n.CPUState.Total - n.CPUState.Allocated - n.CPUState.Other)
		needed := math.Ceil(float64(n.MemAlloc) / float64(memPerCPU))
		blocked = math.Min(math.Max(needed-allocated, 0), math.Max(free, 0))
	}

	return Utilization{
		Utilized:    utilized,
		Allocated:   allocated,
		Blocked:     blocked,
		Unavailable: float64(n.CPUState.Other),
		Capacity:    float64(n.CPUState.Total),
	}
}

// MemUtilization returns the memory usage of the node. Unallocated memory
// is blocked once no CPU can be allocated, and unavailable when the node
// has no usable CPUs at all.
func (n *Node) MemUtilization() Utilization {
	free := n.Memory
	if n.MemFree != nil {
		free = *n.MemFree
	}
	used := n.Memory - free
	if used < 0 {
		used = 0
	}
	if used > n.MemAlloc {
		used = n.MemAlloc
	}

	unallocated := float64(n.Memory - n.MemAlloc)
	if unallocated < 0 {
		unallocated = 0
	}

	u := Utilization{
		Utilized:  float64(used),
		Allocated: float64(n.MemAlloc),
		Capacity:  float64(n.Memory),
	}
	cpus := n.CPUState
	switch {
	case cpus.Allocated+cpus.Other < cpus.Total:
	case cpus.Total-cpus.Other > 0:
		u.Blocked = unallocated
	default:
		u.Unavailable = unallocated
	}
	return u
}

// GPUUtilization returns the GPU usage of the node. Idle GPUs are blocked
// when less than one CPU is available for allocation.
func (n *Node) GPUUtilization(memPerCPU int) Utilization {
	u := Utilization{
		Allocated: float64(n.GPUsUsed),
		Capacity:  float64(n.GPUs),
	}
	if idle := n.GPUs - n.GPUsUsed; idle > 0 && n.CPUUtilization(memPerCPU).Available() < 1 {
		u.Blocked = float64(idle)
	}
	return u
}

// PartitionUtilization holds the summed resources of a partition.
type PartitionUtilization struct {
	CPU Utilization
	Mem Utilization
	GPU Utilization
}

// Utilization sums the nodes of the partition. memPerCPU overrides the
// per-node default when positive. Memory and GPUs of unavailable nodes
// count as unavailable, as Slurm does not track their availability.
func (p *Partition) Utilization(memPerCPU int) PartitionUtilization {
	var total PartitionUtilization
	for _, n := range p.Nodes {
		perCPU := n.MemPerCPU(memPerCPU)
		cpu := n.CPUUtilization(perCPU)
		mem := n.MemUtilization()
		gpu := n.GPUUtilization(perCPU)
		if !n.State.IsAvailable() {
			mem = mem.markUnavailable()
			gpu = gpu.markUnavailable()
		}
		total.CPU = total.CPU.Add(cpu)
		total.Mem = total.Mem.Add(mem)
		total.GPU = total.GPU.Add(gpu)
	}
	return total
}
