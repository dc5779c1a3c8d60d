package weighing

import "github.com/frontandrew/yard/internal/domain"

// DeriveRequirement - чистая функция вывода требования взвешивания
// для подтвержденного визита. Порядок приоритета единый и проверяемый:
// явное правило пропуска > флаг задания > категория ТС по умолчанию.
// nil означает "взвешивание не требуется"
func DeriveRequirement(permit *domain.EntryPermit, task *domain.Task, vehicle *domain.Vehicle) *domain.RequirementSpec {
	if permit != nil {
		switch permit.Weighing {
		case domain.WeighingFlagRequired:
			return &domain.RequirementSpec{
				Kind:   domain.RequirementKindBoth,
				Reason: domain.RequirementReasonPermit,
			}
		case domain.WeighingFlagNotRequired:
			// Явный запрет в пропуске перекрывает задание и категорию
			return nil
		case domain.WeighingFlagDefault:
			// Решают источники ниже по приоритету
		}
	}

	if task != nil && task.WeighingRequired {
		return &domain.RequirementSpec{
			Kind:   domain.RequirementKindBoth,
			Reason: domain.RequirementReasonTask,
		}
	}

	if vehicle != nil && !vehicle.Trusted && vehicle.Category.RequiresWeighingByDefault() {
		return &domain.RequirementSpec{
			Kind:   domain.RequirementKindBoth,
			Reason: domain.RequirementReasonCategory,
		}
	}

	return nil
}
