package appointment

// The lifecycle rules live in one table consulted by both the direct
// status update and the cancellation path, instead of per-handler checks.
//
//	PROGRAMADO ─┬─> CONFIRMADO ─┬─> EN_SALA_DE_ESPERA ──> COMPLETADO
//	            │               └─> NO_ASISTIO
//	            └─> CANCELADO (only via the cancellation operation)

// TransitionKind distinguishes the two operations that move an
// appointment through its lifecycle.
type TransitionKind int

const (
	// TransitionDirect is a professional-initiated status update.
	TransitionDirect TransitionKind = iota
	// TransitionCancel is the front-desk cancellation operation, the
	// only path that may set CANCELADO.
	TransitionCancel
)

// directTargets are the statuses a direct update may set. CANCELADO is
// deliberately absent: cancellation writes a compensating record and
// must go through Cancel.
var directTargets = map[Status]bool{
	StatusProgramado:   true,
	StatusConfirmado:   true,
	StatusEnSalaEspera: true,
	StatusCompletado:   true,
	StatusNoAsistio:    true,
}

// CheckTransition validates a requested lifecycle move. target is
// ignored for TransitionCancel, which always lands on CANCELADO.
func CheckTransition(current Status, target Status, kind TransitionKind) error {
	switch kind {
	case TransitionDirect:
		if !target.Valid() {
			return ErrUnknownStatus
		}
		if target == StatusCancelado {
			return ErrUseCancelOperation
		}
		if current.IsTerminal() {
			return ErrInvalidTransition
		}
		if !directTargets[target] {
			return ErrInvalidTransition
		}
		return nil

	case TransitionCancel:
		switch current {
		case StatusCancelado:
			return ErrAlreadyCancelled
		case StatusCompletado:
			return ErrInvalidTransition
		}
		return nil

	default:
		return ErrInvalidTransition
	}
}
