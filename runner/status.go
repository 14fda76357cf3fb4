package runner

import (
	"fmt"

	"github.com/4rg0n/bitburner-sub000/harvest/domain"
)

// Helper functions to create ProcessStatus

func RunningStatus(runId RunId, inst domain.Instance, units int) ProcessStatus {
	return ProcessStatus{RunId: runId, Instance: inst, Units: units, State: RUNNING}
}

func CompletedStatus(st ProcessStatus) ProcessStatus {
	st.State = COMPLETE
	return st
}

func AbortStatus(st ProcessStatus) ProcessStatus {
	st.State = ABORTED
	return st
}

func (p ProcessStatus) String() string {
	return fmt.Sprintf("ProcessStatus - ID: %s\n\tInstance:\t%s\n\tUnits:\t\t%d\n\tState:\t\t%s\n",
		p.RunId, p.Instance, p.Units, p.State)
}
