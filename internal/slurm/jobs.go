package slurm

import (
	"fmt"
	"strconv"
	"strings"
)

var squeueFields = []string{
	"JobID",
	"NodeList",
	"Partition",
	"State",
	"UserName",
	"NumTasks",
	"Tres-Alloc",
	"Tres-Per-Node",
	"TimeUsed",
	"Name",
}

const (
	colJobID       = "JOBID"
	colJobNodeList = "NODELIST"
	colJobPart     = "PARTITION"
	colJobState    = "STATE"
	colUser        = "USER"
	colTasks       = "TASKS"
	colTresAlloc   = "TRES_ALLOC"
	colTresPerNode = "TRES_PER_NODE"
	colTime        = "TIME"
	colName        = "NAME"
)

// JobState is a job state as printed by squeue.
type JobState string

const (
	JobBootFail    JobState = "BOOT_FAIL"
	JobCancelled   JobState = "CANCELLED"
	JobCompleted   JobState = "COMPLETED"
	JobCompleting  JobState = "COMPLETING"
	JobConfiguring JobState = "CONFIGURING"
	JobDeadline    JobState = "DEADLINE"
	JobFailed      JobState = "FAILED"
	JobNodeFail    JobState = "NODE_FAIL"
	JobOutOfMemory JobState = "OUT_OF_MEMORY"
	JobPending     JobState = "PENDING"
	JobPreempted   JobState = "PREEMPTED"
	JobRequeued    JobState = "REQUEUED"
	JobRequeueFed  JobState = "REQUEUE_FED"
	JobRequeueHold JobState = "REQUEUE_HOLD"
	JobResizing    JobState = "RESIZING"
	JobResvDelHold JobState = "RESV_DEL_HOLD"
	JobRevoked     JobState = "REVOKED"
	JobRunning     JobState = "RUNNING"
	JobSignaling   JobState = "SIGNALING"
	JobSpecialExit JobState = "SPECIAL_EXIT"
	JobStageOut    JobState = "STAGE_OUT"
	JobStopped     JobState = "STOPPED"
	JobSuspended   JobState = "SUSPENDED"
	JobTimeout     JobState = "TIMEOUT"
)

var jobStates = map[JobState]bool{
	JobBootFail: true, JobCancelled: true, JobCompleted: true, JobCompleting: true,
	JobConfiguring: true, JobDeadline: true, JobFailed: true, JobNodeFail: true,
	JobOutOfMemory: true, JobPending: true, JobPreempted: true, JobRequeued: true,
	JobRequeueFed: true, JobRequeueHold: true, JobResizing: true, JobResvDelHold: true,
	JobRevoked: true, JobRunning: true, JobSignaling: true, JobSpecialExit: true,
	JobStageOut: true, JobStopped: true, JobSuspended: true, JobTimeout: true,
}

// ParseJobState validates a squeue state name.
func ParseJobState(value string) (JobState, error) {
	state := JobState(strings.ToUpper(strings.TrimSpace(value)))
	if !jobStates[state] {
		return "", fmt.Errorf("unknown job state %q", value)
	}
	return state, nil
}

// Runtime is the elapsed time of a job. squeue reports INVALID on clock
// skew; an invalid runtime orders below every valid one.
type Runtime struct {
	Valid   bool
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// ParseRuntime parses "[D-][HH:]MM:SS" or "INVALID".
func ParseRuntime(value string) (Runtime, error) {
	value = strings.TrimSpace(value)
	if value == "INVALID" {
		return Runtime{}, nil
	}

	rt := Runtime{Valid: true}
	clock := value
	if days, rest, ok := strings.Cut(value, "-"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return Runtime{}, fmt.Errorf("invalid days in TIME %q", value)
		}
		rt.Days = n
		clock = rest
	}

	parts := strings.Split(clock, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Runtime{}, fmt.Errorf("invalid TIME %q", value)
	}
	if len(parts) == 2 {
		parts = append([]string{"0"}, parts...)
	}
	fields := []*int{&rt.Hours, &rt.Minutes, &rt.Seconds}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Runtime{}, fmt.Errorf("invalid value %q in TIME %q", p, value)
		}
		*fields[i] = n
	}
	return rt, nil
}

// TotalSeconds returns the total duration in seconds, or -1 if invalid.
func (r Runtime) TotalSeconds() int {
	if !r.Valid {
		return -1
	}
	return ((r.Days*24+r.Hours)*60+r.Minutes)*60 + r.Seconds
}

// Compare orders runtimes, with invalid ones first.
func (r Runtime) Compare(other Runtime) int {
	a, b := r.TotalSeconds(), other.TotalSeconds()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// String formats the runtime the way squeue does.
func (r Runtime) String() string {
	if !r.Valid {
		return "INVALID"
	}
	var b strings.Builder
	if r.Days > 0 {
		fmt.Fprintf(&b, "%d-", r.Days)
	}
	if r.Days > 0 || r.Hours > 0 {
		fmt.Fprintf(&b, "%02d:", r.Hours)
	}
	fmt.Fprintf(&b, "%02d:%02d", r.Minutes, r.Seconds)
	return b.String()
}

// Job is one row of squeue output.
type Job struct {
	// ID is kept verbatim since array and het jobs use "123_4" and "12+1".
	ID        string
	Nodelist  []string
	Partition PartitionName
	State     JobState
	User      string
	Tasks     int
	Nodes     int
	CPUs      int
	// Mem is in MB.
	Mem     int
	GPUs    int
	Runtime Runtime
	Name    string

	// RawNodelist is the compact hostlist as printed by squeue.
	RawNodelist string
}

// IsRunning reports whether the job is in the RUNNING state.
func (j *Job) IsRunning() bool {
	return j.State == JobRunning
}

// CompareID orders job IDs numerically on their leading digits, falling
// back to the string for array and het suffixes.
func CompareID(a, b string) int {
	na, ra := leadingNumber(a)
	nb, rb := leadingNumber(b)
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	}
	return strings.Compare(ra, rb)
}

func leadingNumber(id string) (uint64, string) {
	end := 0
	for end < len(id) && id[end] >= '0' && id[end] <= '9' {
		end++
	}
	n, _ := strconv.ParseUint(id[:end], 10, 64)
	return n, id[end:]
}

// ParseJobs parses the output of `squeue --Format`.
func ParseJobs(data []byte) ([]*Job, error) {
	t, err := readTable("squeue", data)
	if err != nil {
		return nil, err
	}
	if err := t.require(colJobID, colJobNodeList, colJobPart, colJobState, colUser, colTasks,
		colTresAlloc, colTresPerNode, colTime, colName); err != nil {
		return nil, err
	}

	jobs := make([]*Job, 0, len(t.rows))
	for _, r := range t.rows {
		job, err := parseJob(r)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func parseJob(r row) (*Job, error) {
	job := &Job{
		ID:          r.get(colJobID),
		Partition:   ParsePartitionName(r.get(colJobPart)),
		User:        r.get(colUser),
		Name:        r.get(colName),
		RawNodelist: r.get(colJobNodeList),
	}
	if job.ID == "" {
		return nil, r.errorf("empty %s", colJobID)
	}

	var err error
	if job.Nodelist, err = ExpandHostlist(job.RawNodelist); err != nil {
		return nil, r.errorf("%w", err)
	}
	if job.State, err = ParseJobState(r.get(colJobState)); err != nil {
		return nil, r.errorf("%w", err)
	}
	if job.Tasks, err = parseCount(colTasks, r.get(colTasks)); err != nil {
		return nil, r.errorf("%w", err)
	}
	if job.Runtime, err = ParseRuntime(r.get(colTime)); err != nil {
		return nil, r.errorf("%w", err)
	}
	if err := job.applyTresAlloc(r.get(colTresAlloc)); err != nil {
		return nil, r.errorf("%w", err)
	}
	if err := job.applyTresPerNode(r.get(colTresPerNode)); err != nil {
		return nil, r.errorf("%w", err)
	}
	return job, nil
}

// applyTresAlloc reads "cpu=4,mem=16G,node=1,billing=4,gres/gpu=1".
func (j *Job) applyTresAlloc(tres string) error {
	for _, resource := range strings.Split(tres, ",") {
		key, value, ok := strings.Cut(resource, "=")
		if !ok {
			continue
		}
		var err error
		switch key {
		case "cpu":
			j.CPUs, err = parseCount("cpu", value)
		case "mem":
			j.Mem, err = ParseMemory(value)
		case "node":
			j.Nodes, err = parseCount("node", value)
		case "gres/gpu":
			j.GPUs, err = parseCount("gres/gpu", value)
		}
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", colTresAlloc, tres, err)
		}
	}
	return nil
}

// applyTresPerNode reads GPU requests such as "gres/gpu:a100:2" or
// "gpu:4". When present it overrides the count from TRES_ALLOC.
func (j *Job) applyTresPerNode(tres string) error {
	for _, resource := range strings.Split(tres, ",") {
		resource = strings.TrimPrefix(strings.TrimPrefix(resource, "gres:"), "gres/")
		fields := strings.SplitN(resource, ":", 3)
		if fields[0] != "gpu" {
			continue
		}
		if len(fields) == 1 {
			// A bare "gpu" request means one GPU per node.
			j.GPUs = 1
			continue
		}
		n, err := parseCount("gpu", fields[len(fields)-1])
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", colTresPerNode, tres, err)
		}
		j.GPUs = n
	}
	return nil
}

// ParseMemory converts a TRES memory amount such as "16G" or "1.5T" to MB.
func ParseMemory(value string) (int, error) {
	if len(value) < 2 {
		return 0, fmt.Errorf("invalid memory amount %q", value)
	}
	amount, err := strconv.ParseFloat(value[:len(value)-1], 64)
	if err != nil || amount < 0 {
		return 0, fmt.Errorf("invalid memory amount %q", value)
	}
	switch value[len(value)-1] {
	case 'K':
		amount /= 1024
	case 'M':
	case 'G':
		amount *= 1024
	case 'T':
		amount *= 1024 * 1024
	default:
		return 0, fmt.Errorf("invalid memory unit in %q", value)
	}
	return int(amount), nil
}

// usersOf counts the distinct users owning jobs.
func usersOf(jobs []*Job) int {
	users := make([]string, len(jobs))
	for i, j := range jobs {
		users[i] = j.User
	}
	return uniqueCount(users)
}
