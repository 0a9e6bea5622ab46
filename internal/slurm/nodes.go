package slurm

import (
	"fmt"
	"strconv"
	"strings"
)

// sinfoFields are requested from `sinfo -N --Format`; each maps to the header
// named in the matching column constant below.
var sinfoFields = []string{
	"AllocMem",
	"CPUs",
	"CPUsLoad",
	"CPUsState",
	"FreeMem",
	"Gres",
	"GresUsed",
	"Memory",
	"NodeList",
	"Partition",
	"StateLong",
}

const (
	colAllocMem  = "ALLOCMEM"
	colCPUs      = "CPUS"
	colCPULoad   = "CPU_LOAD"
	colCPUState  = "CPUS(A/I/O/T)"
	colFreeMem   = "FREE_MEM"
	colGres      = "GRES"
	colGresUsed  = "GRES_USED"
	colMemory    = "MEMORY"
	colNodeList  = "NODELIST"
	colPartition = "PARTITION"
	colState     = "STATE"
)

// SlurmState is the base state of a node as reported by sinfo.
type SlurmState string

const (
	StateAllocated       SlurmState = "allocated"
	StateCompleting      SlurmState = "completing"
	StateDown            SlurmState = "down"
	StateDrained         SlurmState = "drained"
	StateDraining        SlurmState = "draining"
	StateFail            SlurmState = "fail"
	StateFailing         SlurmState = "failing"
	StateFuture          SlurmState = "future"
	StateIdle            SlurmState = "idle"
	StateInvalid         SlurmState = "inval"
	StateMaintenance     SlurmState = "maint"
	StateMixed           SlurmState = "mixed"
	StatePerfctrs        SlurmState = "perfctrs"
	StatePlanned         SlurmState = "planned"
	StatePowerDown       SlurmState = "power_down"
	StatePoweredDown     SlurmState = "powered_down"
	StatePoweringDown    SlurmState = "powering_down"
	StatePowerUp         SlurmState = "power_up"
	StatePoweringUp      SlurmState = "powering_up"
	StateRebootIssued    SlurmState = "reboot_issued"
	StateRebootRequested SlurmState = "reboot_requested"
	StateReserved        SlurmState = "reserved"
	StateUnknown         SlurmState = "unknown"
)

var stateLabels = map[SlurmState]string{
	StateAllocated:       "Allocated",
	StateCompleting:      "Completing",
	StateDown:            "Down",
	StateDrained:         "Drained",
	StateDraining:        "Draining",
	StateFail:            "Fail",
	StateFailing:         "Failing",
	StateFuture:          "Future",
	StateIdle:            "Idle",
	StateInvalid:         "Invalid",
	StateMaintenance:     "Maintenance",
	StateMixed:           "Mixed",
	StatePerfctrs:        "Perfctrs",
	StatePlanned:         "Planned",
	StatePowerDown:       "PowerDown",
	StatePoweredDown:     "PoweredDown",
	StatePoweringDown:    "PoweringDown",
	StatePowerUp:         "PowerUp",
	StatePoweringUp:      "PoweringUp",
	StateRebootIssued:    "RebootIssued",
	StateRebootRequested: "RebootRequested",
	StateReserved:        "Reserved",
	StateUnknown:         "Unknown",
}

// Label returns the display name of the state.
func (s SlurmState) Label() string {
	if label, ok := stateLabels[s]; ok {
		return label
	}
	return string(s)
}

// stateFlags are the single-character suffixes sinfo appends to states
// (not responding, powered down, powering up, ...).
const stateFlags = "*~#!%$@^-"

// NodeState is a node state plus whether the node responds.
type NodeState struct {
	State    SlurmState
	Responds bool
}

// ParseNodeState parses a StateLong value such as "mixed", "down*" or
// "idle+drain".
func ParseNodeState(value string) (NodeState, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	base, _, _ := strings.Cut(value, "+")
	base = strings.TrimRight(base, stateFlags)

	state := SlurmState(base)
	if _, ok := stateLabels[state]; !ok {
		return NodeState{}, fmt.Errorf("unknown node state %q", value)
	}
	return NodeState{
		State:    state,
		Responds: !strings.Contains(value, "*"),
	}, nil
}

// IsAvailable returns true if the node can execute jobs.
func (s NodeState) IsAvailable() bool {
	if !s.Responds {
		return false
	}
	switch s.State {
	case StateAllocated, StateCompleting, StateIdle, StateMixed, StateReserved, StatePlanned:
		return true
	}
	return false
}

func (s NodeState) String() string {
	if s.Responds {
		return s.State.Label()
	}
	return s.State.Label() + "*"
}

// PartitionName is a partition label plus the default-partition marker.
type PartitionName struct {
	Label string
	// Default is only kept to render names the way sinfo/squeue do; it never
	// takes part in comparisons.
	Default bool
}

// ParsePartitionName strips the trailing '*' marking the default partition.
func ParsePartitionName(value string) PartitionName {
	value = strings.TrimSpace(value)
	return PartitionName{
		Label:   strings.TrimSuffix(value, "*"),
		Default: strings.HasSuffix(value, "*"),
	}
}

func (p PartitionName) String() string {
	if p.Default {
		return p.Label + "*"
	}
	return p.Label
}

// CPUState summarizes the state of CPUs on a node.
type CPUState struct {
	Allocated int
	Idle      int
	Other     int
	Total     int
}

// ParseCPUState parses the "A/I/O/T" form reported by sinfo.
func ParseCPUState(value string) (CPUState, error) {
	parts := strings.Split(strings.TrimSpace(value), "/")
	if len(parts) != 4 {
		return CPUState{}, fmt.Errorf("expected CPU states in the form A/I/O/T, got %q", value)
	}
	var counts [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return CPUState{}, fmt.Errorf("%q is not a valid number of CPUs", p)
		}
		counts[i] = n
	}
	return CPUState{Allocated: counts[0], Idle: counts[1], Other: counts[2], Total: counts[3]}, nil
}

// Node is one row of `sinfo -N`: a node as seen from one partition.
type Node struct {
	Name      string
	Partition PartitionName
	State     NodeState

	CPUs     int
	CPULoad  *float64
	CPUState CPUState

	// Memory values are in MB.
	Memory   int
	MemAlloc int
	MemFree  *int

	GPUs     int
	GPUsUsed int

	Jobs []*Job
	// DefMem is the effective default memory allocation of the node.
	DefMem DefaultMem
}

// Users returns the number of distinct users with jobs on the node.
func (n *Node) Users() int {
	return usersOf(n.Jobs)
}

// ParseNodes parses the output of `sinfo -N --Format`.
func ParseNodes(data []byte) ([]*Node, error) {
	t, err := readTable("sinfo", data)
	if err != nil {
		return nil, err
	}
	if err := t.require(colAllocMem, colCPUs, colCPULoad, colCPUState, colFreeMem, colGres,
		colGresUsed, colMemory, colNodeList, colPartition, colState); err != nil {
		return nil, err
	}

	nodes := make([]*Node, 0, len(t.rows))
	for _, r := range t.rows {
		node, err := parseNode(r)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func parseNode(r row) (*Node, error) {
	node := &Node{
		Name:      r.get(colNodeList),
		Partition: ParsePartitionName(r.get(colPartition)),
	}

	var err error
	if node.State, err = ParseNodeState(r.get(colState)); err != nil {
		return nil, r.errorf("%w", err)
	}
	if node.CPUState, err = ParseCPUState(r.get(colCPUState)); err != nil {
		return nil, r.errorf("%w", err)
	}
	if node.CPUs, err = parseCount(colCPUs, r.get(colCPUs)); err != nil {
		return nil, r.errorf("%w", err)
	}
	if node.Memory, err = parseCount(colMemory, r.get(colMemory)); err != nil {
		return nil, r.errorf("%w", err)
	}
	if node.MemAlloc, err = parseCount(colAllocMem, r.get(colAllocMem)); err != nil {
		return nil, r.errorf("%w", err)
	}
	if node.CPULoad, err = parseOptionalFloat(colCPULoad, r.get(colCPULoad)); err != nil {
		return nil, r.errorf("%w", err)
	}
	if node.MemFree, err = parseOptionalInt(colFreeMem, r.get(colFreeMem)); err != nil {
		return nil, r.errorf("%w", err)
	}
	if node.GPUs, err = parseGPUs(r.get(colGres)); err != nil {
		return nil, r.errorf("parsing %s: %w", colGres, err)
	}
	if node.GPUsUsed, err = parseGPUs(r.get(colGresUsed)); err != nil {
		return nil, r.errorf("parsing %s: %w", colGresUsed, err)
	}
	return node, nil
}

func parseCount(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, value)
	}
	return n, nil
}

// notAvailable is what sinfo prints for values it does not know.
const notAvailable = "N/A"

func parseOptionalFloat(name, value string) (*float64, error) {
	if value == notAvailable {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", name, value)
	}
	return &f, nil
}

func parseOptionalInt(name, value string) (*int, error) {
	if value == notAvailable {
		return nil, nil
	}
	n, err := parseCount(name, value)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// parseGPUs returns the GPU count from a GRES string such as
// "gpu:a100:4(S:0-1),shard:8". Strings without a gpu entry yield 0.
func parseGPUs(gres string) (int, error) {
	for _, entry := range strings.Split(gres, ",") {
		if !strings.HasPrefix(entry, "gpu:") {
			continue
		}
		fields := strings.SplitN(entry, ":", 3)
		value := fields[len(fields)-1]
		value, _, _ = strings.Cut(value, "(")

		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid GPU count in %q", entry)
		}
		return n, nil
	}
	return 0, nil
}
