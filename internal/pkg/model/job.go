package model

import (
	"fmt"
	"strconv"
	"time"
)

/*
Subset of <cluster>_job_table read by the accounting endpoints.

+------------+---------------------+------+-----+---------+----------------+
| Field      | Type                | Null | Key | Default | Extra          |
+------------+---------------------+------+-----+---------+----------------+
| job_db_inx | bigint(20) unsigned | NO   | PRI | NULL    | auto_increment |
| account    | tinytext            | YES  |     | NULL    |                |
| cpus_req   | int(10) unsigned    | NO   |     | NULL    |                |
| exit_code  | int(10) unsigned    | NO   |     | 0       |                |
| id_job     | int(10) unsigned    | NO   | MUL | NULL    |                |
| id_user    | int(10) unsigned    | NO   |     | NULL    |                |
| job_name   | tinytext            | NO   |     | NULL    |                |
| mem_req    | bigint(20) unsigned | NO   |     | 0       |                |
| nodelist   | text                | YES  |     | NULL    |                |
| partition  | tinytext            | NO   |     | NULL    |                |
| state      | int(10) unsigned    | NO   | MUL | NULL    |                |
| timelimit  | int(10) unsigned    | NO   |     | 0       |                |
| time_submit| bigint(20) unsigned | NO   |     | 0       |                |
| time_start | bigint(20) unsigned | NO   |     | 0       |                |
| time_end   | bigint(20) unsigned | NO   | MUL | 0       |                |
| work_dir   | text                | NO   |     | ''      |                |
| tres_req   | text                | NO   |     | ''      |                |
+------------+---------------------+------+-----+---------+----------------+
*/

// Jobs is a slice of Job.
type Jobs []Job

type Job struct {
	DBIndex    uint64 `gorm:"column:job_db_inx;primaryKey" json:"-"`
	JobID      uint32 `gorm:"column:id_job" json:"jobid"`
	Name       string `gorm:"column:job_name" json:"name"`
	Account    string `gorm:"column:account" json:"account"`
	UserID     uint32 `gorm:"column:id_user" json:"uid"`
	Partition  string `gorm:"column:partition" json:"partition"`
	Nodelist   string `gorm:"column:nodelist" json:"nodelist"`
	State      uint32 `gorm:"column:state" json:"state_code"`
	ExitCode   uint32 `gorm:"column:exit_code" json:"exit_status"`
	CPUsReq    uint32 `gorm:"column:cpus_req" json:"cpus_req"`
	MemReq     uint64 `gorm:"column:mem_req" json:"mem_req"`
	Timelimit  uint32 `gorm:"column:timelimit" json:"timelimit"` // 分钟
	TimeSubmit int64  `gorm:"column:time_submit" json:"time_submit"`
	TimeStart  int64  `gorm:"column:time_start" json:"time_start"`
	TimeEnd    int64  `gorm:"column:time_end" json:"time_end"`
	WorkDir    string `gorm:"column:work_dir" json:"work_dir"`
	TresReq    string `gorm:"column:tres_req" json:"tres_req"`
}

// JobTableName returns the cluster specific job table.
func JobTableName(cluster string) string { return cluster + "_job_table" }

// JobState is the base state stored in the low byte of job_table.state.
type JobState uint32

const (
	JobPending JobState = iota
	JobRunning
	JobSuspended
	JobComplete
	JobCancelled
	JobFailed
	JobTimeout
	JobNodeFail
	JobPreempted
	JobBootFail
	JobDeadline
	JobOOM
)

var jobStateNames = [...]string{
	"PENDING", "RUNNING", "SUSPENDED", "COMPLETED", "CANCELLED", "FAILED",
	"TIMEOUT", "NODE_FAIL", "PREEMPTED", "BOOT_FAIL", "DEADLINE", "OUT_OF_MEMORY",
}

func (s JobState) String() string {
	if int(s) < len(jobStateNames) {
		return jobStateNames[s]
	}
	return "UNKNOWN(" + strconv.FormatUint(uint64(s), 10) + ")"
}

// Finished reports whether the job left the queue for good.
func (s JobState) Finished() bool { return s >= JobComplete }

// BaseState strips the state flags (requeue, completing, ...).
func (j Job) BaseState() JobState { return JobState(j.State & 0xff) }

// ExitStatus decodes the wait status kept in exit_code: the exit code of the
// batch script and the signal that terminated it, if any.
func (j Job) ExitStatus() (code, signal int) {
	return int(j.ExitCode>>8) & 0xff, int(j.ExitCode & 0x7f)
}

// ExitCodeString renders the exit status like sacct, e.g. "1:0".
func (j Job) ExitCodeString() string {
	code, sig := j.ExitStatus()
	return fmt.Sprintf("%d:%d", code, sig)
}

const (
	timelimitNoVal    = 0xfffffffe
	timelimitInfinite = 0xffffffff
)

// TimelimitDuration converts the limit to a duration. ok is false for
// unlimited or unset limits.
func (j Job) TimelimitDuration() (d time.Duration, ok bool) {
	if j.Timelimit == timelimitNoVal || j.Timelimit == timelimitInfinite {
		return 0, false
	}
	return time.Duration(j.Timelimit) * time.Minute, true
}

// memPerCPU flags mem_req as per CPU instead of per node.
const memPerCPU = uint64(1) << 63

// MemoryMB returns the requested memory in MB and whether it is per CPU.
func (j Job) MemoryMB() (mb uint64, perCPU bool) {
	return j.MemReq &^ memPerCPU, j.MemReq&memPerCPU != 0
}

// JobView is the JSON representation returned by the accounting endpoints.
type JobView struct {
	Job
	StateName string `json:"state"`
	ExitCode  string `json:"exit_code"`
	Timelimit string `json:"timelimit_human,omitempty"`
	MemoryMB  uint64 `json:"mem_mb"`
	MemPerCPU bool   `json:"mem_per_cpu"`
}

// View decodes the raw accounting columns.
func (j Job) View() JobView {
	v := JobView{Job: j, StateName: j.BaseState().String(), ExitCode: j.ExitCodeString()}
	if d, ok := j.TimelimitDuration(); ok {
		v.Timelimit = d.String()
	}
	v.MemoryMB, v.MemPerCPU = j.MemoryMB()
	return v
}
