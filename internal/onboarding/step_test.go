package onboarding

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	cases := []struct {
		name    string
		from    Step
		event   Event
		want    Step
		wantErr bool
	}{
		{name: "personal_next", from: StepPersonal, event: EventNext, want: StepBusiness},
		{name: "personal_back_stays", from: StepPersonal, event: EventBack, want: StepPersonal},
		{name: "business_next", from: StepBusiness, event: EventNext, want: StepDocuments},
		{name: "business_back", from: StepBusiness, event: EventBack, want: StepPersonal},
		{name: "documents_back", from: StepDocuments, event: EventBack, want: StepBusiness},
		{name: "documents_submitted", from: StepDocuments, event: EventSubmitted, want: StepCompleted},
		{name: "documents_next_requires_submission", from: StepDocuments, event: EventNext, wantErr: true},
		{name: "submit_from_personal", from: StepPersonal, event: EventSubmitted, wantErr: true},
		{name: "submit_from_business", from: StepBusiness, event: EventSubmitted, wantErr: true},
		{name: "completed_back", from: StepCompleted, event: EventBack, wantErr: true},
		{name: "completed_next", from: StepCompleted, event: EventNext, wantErr: true},
		{name: "unknown_step", from: Step(42), event: EventNext, wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := Transition(tc.from, tc.event)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidTransition))
				assert.Equal(t, tc.from, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "documents", StepDocuments.String())
	assert.Equal(t, "step(9)", Step(9).String())
}
