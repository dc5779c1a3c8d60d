package weighing

import (
	"testing"

	"github.com/frontandrew/yard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveRequirement_Precedence(t *testing.T) {
	truck := &domain.Vehicle{Category: domain.CategoryTruck}
	car := &domain.Vehicle{Category: domain.CategoryCar}
	trustedTruck := &domain.Vehicle{Category: domain.CategoryTruck, Trusted: true}

	permitRequired := &domain.EntryPermit{Weighing: domain.WeighingFlagRequired}
	permitNotRequired := &domain.EntryPermit{Weighing: domain.WeighingFlagNotRequired}
	permitDefault := &domain.EntryPermit{Weighing: domain.WeighingFlagDefault}

	taskRequired := &domain.Task{WeighingRequired: true}
	taskPlain := &domain.Task{WeighingRequired: false}

	tests := []struct {
		name       string
		permit     *domain.EntryPermit
		task       *domain.Task
		vehicle    *domain.Vehicle
		wantReason domain.RequirementReason
		wantNil    bool
	}{
		{
			name:       "пропуск требует - причина permit",
			permit:     permitRequired,
			task:       taskPlain,
			vehicle:    car,
			wantReason: domain.RequirementReasonPermit,
		},
		{
			name:    "явный запрет в пропуске перекрывает задание и категорию",
			permit:  permitNotRequired,
			task:    taskRequired,
			vehicle: truck,
			wantNil: true,
		},
		{
			name:       "пропуск default - решает задание",
			permit:     permitDefault,
			task:       taskRequired,
			vehicle:    car,
			wantReason: domain.RequirementReasonTask,
		},
		{
			name:       "без пропуска и задания - категория грузовика",
			vehicle:    truck,
			wantReason: domain.RequirementReasonCategory,
		},
		{
			name:       "цистерна требует по категории",
			vehicle:    &domain.Vehicle{Category: domain.CategoryTanker},
			wantReason: domain.RequirementReasonCategory,
		},
		{
			name:    "доверенный грузовик освобожден от категорийного правила",
			vehicle: trustedTruck,
			wantNil: true,
		},
		{
			name:       "задание перекрывает доверие к ТС",
			task:       taskRequired,
			vehicle:    trustedTruck,
			wantReason: domain.RequirementReasonTask,
		},
		{
			name:    "легковой без правил - требования нет",
			permit:  permitDefault,
			task:    taskPlain,
			vehicle: car,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := DeriveRequirement(tt.permit, tt.task, tt.vehicle)

			if tt.wantNil {
				assert.Nil(t, spec)
				return
			}

			require.NotNil(t, spec)
			assert.Equal(t, domain.RequirementKindBoth, spec.Kind)
			assert.Equal(t, tt.wantReason, spec.Reason)
		})
	}
}
