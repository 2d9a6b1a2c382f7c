package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/access"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// DefaultIdempotencyTTL vigencia de una clave de idempotencia de salida.
const DefaultIdempotencyTTL = 24 * time.Hour

// StockMutator es el único escritor de productos y ledger. Cada operación se autoriza
// antes de tocar cualquier store y se ejecuta como una sola transacción
// (bloqueo de fila → validación → escritura de cantidad + movimiento → Commit).
type StockMutator struct {
	txRunner       TxRunner
	log            zerolog.Logger
	tracer         trace.Tracer
	idempotency    IdempotencyStore
	idempotencyTTL time.Duration
	now            func() time.Time
}

// MutatorOption configura opciones del StockMutator.
type MutatorOption func(*StockMutator)

// WithIdempotency habilita WithdrawOnce con el store indicado.
func WithIdempotency(store IdempotencyStore, ttl time.Duration) MutatorOption {
	return func(m *StockMutator) {
		m.idempotency = store
		if ttl > 0 {
			m.idempotencyTTL = ttl
		}
	}
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) MutatorOption {
	return func(m *StockMutator) { m.now = now }
}

// NewStockMutator construye el caso de uso.
func NewStockMutator(txRunner TxRunner, log zerolog.Logger, opts ...MutatorOption) *StockMutator {
	m := &StockMutator{
		txRunner:       txRunner,
		log:            log,
		tracer:         tracer(),
		idempotencyTTL: DefaultIdempotencyTTL,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MutationResult estado resultante de una mutación. Movement es nil si la cantidad no cambió.
type MutationResult struct {
	Item     *entity.Item
	Movement *entity.MovementRecord
}

// AdjustInput actualización parcial de un producto; nil = campo no enviado.
type AdjustInput struct {
	Name     *string
	Quantity *int64
	Active   *bool
}

func (in AdjustInput) empty() bool {
	return in.Name == nil && in.Quantity == nil && in.Active == nil
}

// CreateItem crea un producto activo. Si initialQuantity > 0 registra una entrada en la misma transacción.
func (m *StockMutator) CreateItem(ctx context.Context, actor entity.Actor, name string, initialQuantity int64) (res *MutationResult, err error) {
	ctx, span := m.tracer.Start(ctx, "inventory.CreateItem",
		trace.WithAttributes(attribute.Int64("inventory.initial_quantity", initialQuantity)))
	defer func() { endSpan(span, err) }()

	name = entity.NormalizeName(name)
	if name == "" {
		return nil, domain.Invalid("el nombre del producto es requerido")
	}
	if entity.NameTooLong(name) {
		return nil, domain.Invalid(fmt.Sprintf("el nombre del producto no puede superar %d caracteres", entity.MaxNameLength))
	}
	if initialQuantity < 0 {
		return nil, domain.Invalid("la cantidad del producto debe ser un número no negativo")
	}
	if err := authorize(actor, access.OpCreateItem); err != nil {
		return nil, err
	}

	res = &MutationResult{}
	err = m.txRunner.Run(ctx, func(itemRepo repository.ItemRepository, movRepo repository.MovementRepository) error {
		existing, err := itemRepo.GetByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: ya existe un producto con ese nombre", domain.ErrConflict)
		}
		now := m.now()
		item := &entity.Item{
			ID:        uuid.New().String(),
			Name:      name,
			Quantity:  0,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := itemRepo.Create(ctx, item); err != nil {
			return err
		}
		res.Item = item
		if initialQuantity > 0 {
			mov, err := applyMovement(ctx, itemRepo, movRepo, item, entity.MovementInbound, initialQuantity, actor.ID, now)
			if err != nil {
				return err
			}
			res.Movement = mov
		}
		return nil
	})
	if err != nil {
		return nil, domain.Classify(err)
	}
	m.logMutation("producto creado", res, actor)
	return res, nil
}

// AdjustQuantity actualización parcial de name, quantity y active.
// Un aumento de cantidad registra una entrada por la diferencia y una disminución una salida,
// de modo que el ledger siempre cuadra con la cantidad almacenada.
func (m *StockMutator) AdjustQuantity(ctx context.Context, actor entity.Actor, itemID string, in AdjustInput) (res *MutationResult, err error) {
	ctx, span := m.tracer.Start(ctx, "inventory.AdjustQuantity",
		trace.WithAttributes(attribute.String("inventory.item_id", itemID)))
	defer func() { endSpan(span, err) }()

	if in.empty() {
		return nil, domain.Invalid("debe proporcionar al menos un campo para actualizar (name, quantity, active)")
	}
	var name string
	if in.Name != nil {
		name = entity.NormalizeName(*in.Name)
		if name == "" {
			return nil, domain.Invalid("el nombre del producto no puede estar vacío")
		}
		if entity.NameTooLong(name) {
			return nil, domain.Invalid(fmt.Sprintf("el nombre del producto no puede superar %d caracteres", entity.MaxNameLength))
		}
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		return nil, domain.Invalid("la cantidad debe ser un número no negativo")
	}
	if in.Name != nil || in.Quantity != nil {
		if err := authorize(actor, access.OpAdjustQuantity); err != nil {
			return nil, err
		}
	}
	if in.Active != nil {
		if err := authorize(actor, access.OpAdjustActive); err != nil {
			return nil, err
		}
	}

	res = &MutationResult{}
	err = m.txRunner.Run(ctx, func(itemRepo repository.ItemRepository, movRepo repository.MovementRepository) error {
		item, err := itemRepo.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		// El reloj se lee con la fila bloqueada: el orden de created_at sigue al de los commits.
		now := m.now()
		res.Item = item

		dirty := false
		if in.Name != nil && name != item.Name {
			other, err := itemRepo.GetByName(ctx, name)
			if err != nil {
				return err
			}
			if other != nil && other.ID != item.ID {
				return fmt.Errorf("%w: ya existe un producto con ese nombre", domain.ErrConflict)
			}
			item.Name = name
			dirty = true
		}
		if in.Active != nil && *in.Active != item.Active {
			item.Active = *in.Active
			dirty = true
		}

		if in.Quantity != nil {
			delta := *in.Quantity - item.Quantity
			switch {
			case delta > 0:
				res.Movement, err = applyMovement(ctx, itemRepo, movRepo, item, entity.MovementInbound, delta, actor.ID, now)
				return err
			case delta < 0:
				res.Movement, err = applyMovement(ctx, itemRepo, movRepo, item, entity.MovementOutbound, -delta, actor.ID, now)
				return err
			}
		}
		if !dirty {
			return nil
		}
		item.UpdatedAt = now
		return itemRepo.Update(ctx, item)
	})
	if err != nil {
		return nil, domain.Classify(err)
	}
	m.logMutation("producto actualizado", res, actor)
	return res, nil
}

// SetActive cambia solo el estatus del producto; no genera movimiento.
func (m *StockMutator) SetActive(ctx context.Context, actor entity.Actor, itemID string, active bool) (res *MutationResult, err error) {
	ctx, span := m.tracer.Start(ctx, "inventory.SetActive",
		trace.WithAttributes(attribute.String("inventory.item_id", itemID), attribute.Bool("inventory.active", active)))
	defer func() { endSpan(span, err) }()

	if err := authorize(actor, access.OpSetActive); err != nil {
		return nil, err
	}
	res = &MutationResult{}
	err = m.txRunner.Run(ctx, func(itemRepo repository.ItemRepository, _ repository.MovementRepository) error {
		item, err := itemRepo.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		res.Item = item
		if item.Active == active {
			return nil
		}
		item.Active = active
		item.UpdatedAt = m.now()
		return itemRepo.Update(ctx, item)
	})
	if err != nil {
		return nil, domain.Classify(err)
	}
	m.logMutation("estatus de producto actualizado", res, actor)
	return res, nil
}

// Withdraw saca inventario de un producto activo. La fila queda bloqueada desde la lectura
// hasta el Commit, así dos salidas concurrentes nunca validan contra una cantidad obsoleta.
func (m *StockMutator) Withdraw(ctx context.Context, actor entity.Actor, itemID string, amount int64) (res *MutationResult, err error) {
	ctx, span := m.tracer.Start(ctx, "inventory.Withdraw",
		trace.WithAttributes(attribute.String("inventory.item_id", itemID), attribute.Int64("inventory.amount", amount)))
	defer func() { endSpan(span, err) }()

	if amount <= 0 {
		return nil, domain.Invalid("la cantidad a sacar debe ser un número positivo")
	}
	if err := authorize(actor, access.OpWithdraw); err != nil {
		return nil, err
	}
	return m.withdraw(ctx, actor, itemID, amount)
}

// WithdrawOnce igual que Withdraw pero protegido por una clave de idempotencia.
// Una clave repetida devuelve domain.ErrDuplicateRequest; si la salida falla la clave se libera.
func (m *StockMutator) WithdrawOnce(ctx context.Context, actor entity.Actor, itemID string, amount int64, key string) (*MutationResult, error) {
	if key == "" || m.idempotency == nil {
		return m.Withdraw(ctx, actor, itemID, amount)
	}
	if amount <= 0 {
		return nil, domain.Invalid("la cantidad a sacar debe ser un número positivo")
	}
	if err := authorize(actor, access.OpWithdraw); err != nil {
		return nil, err
	}

	scoped := idempotencyKey(actor.ID, key)
	ok, err := m.idempotency.Reserve(ctx, scoped, m.idempotencyTTL)
	if err != nil {
		return nil, domain.Classify(fmt.Errorf("reservar clave de idempotencia: %w", err))
	}
	if !ok {
		return nil, domain.ErrDuplicateRequest
	}

	res, err := m.Withdraw(ctx, actor, itemID, amount)
	if err != nil {
		if relErr := m.idempotency.Release(context.WithoutCancel(ctx), scoped); relErr != nil {
			m.log.Warn().Err(relErr).Str("key", scoped).Msg("no se pudo liberar la clave de idempotencia")
		}
		return nil, err
	}
	return res, nil
}

func (m *StockMutator) withdraw(ctx context.Context, actor entity.Actor, itemID string, amount int64) (*MutationResult, error) {
	res := &MutationResult{}
	err := m.txRunner.Run(ctx, func(itemRepo repository.ItemRepository, movRepo repository.MovementRepository) error {
		item, err := itemRepo.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		if !item.Active {
			return domain.ErrInactive
		}
		res.Item = item
		res.Movement, err = applyMovement(ctx, itemRepo, movRepo, item, entity.MovementOutbound, amount, actor.ID, m.now())
		return err
	})
	if err != nil {
		return nil, domain.Classify(err)
	}
	m.logMutation("salida de inventario registrada", res, actor)
	return res, nil
}

// DeleteItem elimina el producto. Los movimientos del ledger se conservan.
func (m *StockMutator) DeleteItem(ctx context.Context, actor entity.Actor, itemID string) (err error) {
	ctx, span := m.tracer.Start(ctx, "inventory.DeleteItem",
		trace.WithAttributes(attribute.String("inventory.item_id", itemID)))
	defer func() { endSpan(span, err) }()

	if err := authorize(actor, access.OpDeleteItem); err != nil {
		return err
	}
	err = m.txRunner.Run(ctx, func(itemRepo repository.ItemRepository, _ repository.MovementRepository) error {
		item, err := itemRepo.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		return itemRepo.Delete(ctx, itemID)
	})
	if err != nil {
		return domain.Classify(err)
	}
	m.log.Info().Str("item_id", itemID).Str("actor_id", actor.ID).Msg("producto eliminado")
	return nil
}

// applyMovement es el único camino que modifica Quantity: ajusta la cantidad y agrega el
// movimiento con los repos de la misma transacción del caller.
func applyMovement(
	ctx context.Context,
	itemRepo repository.ItemRepository,
	movRepo repository.MovementRepository,
	item *entity.Item,
	kind entity.MovementKind,
	amount int64,
	actorID string,
	now time.Time,
) (*entity.MovementRecord, error) {
	if amount <= 0 {
		return nil, domain.Invalid("la cantidad del movimiento debe ser positiva")
	}
	if kind == entity.MovementOutbound && amount > item.Quantity {
		return nil, &domain.InsufficientStockError{Available: item.Quantity, Requested: amount}
	}
	item.Quantity += kind.Sign() * amount
	item.UpdatedAt = now
	if err := itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}
	mov := &entity.MovementRecord{
		ItemID:    item.ID,
		Kind:      kind,
		Amount:    amount,
		ActorID:   actorID,
		CreatedAt: now,
	}
	if err := movRepo.Append(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// authorize consulta la política central; un rechazo devuelve domain.ErrForbidden.
func authorize(actor entity.Actor, op access.Operation) error {
	d := access.Authorize(actor.Role, op)
	if !d.Allowed {
		return fmt.Errorf("%w: rol %q sin permiso para %s (%s)", domain.ErrForbidden, actor.Role, op, d.Reason)
	}
	return nil
}

func idempotencyKey(actorID, key string) string {
	if actorID == "" {
		actorID = "anon"
	}
	return "withdraw:" + actorID + ":" + key
}

func (m *StockMutator) logMutation(msg string, res *MutationResult, actor entity.Actor) {
	ev := m.log.Info().
		Str("item_id", res.Item.ID).
		Int64("quantity", res.Item.Quantity).
		Bool("active", res.Item.Active).
		Str("actor_id", actor.ID)
	if res.Movement != nil {
		ev = ev.Int64("movement_id", res.Movement.ID).
			Str("kind", string(res.Movement.Kind)).
			Int64("amount", res.Movement.Amount)
	}
	ev.Msg(msg)
}
