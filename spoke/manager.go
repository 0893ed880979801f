package spoke

// Manager keeps one Container per component type. Containers are indexed by
// the numeric TypeId of their component type and are created on the first attach.
type Manager struct {
	containers []AnyContainer
	registered []TypeId
	cache      queryCache
	closed     bool
}

func NewManager() *Manager {
	return &Manager{}
}

// ContainerOf returns the container for C, creating it if it does not exist yet.
func ContainerOf[C any](m *Manager) *Container[C] {
	m.ensureOpen()

	typeId := TypeIdOf[C]()
	if existing := m.lookup(typeId); existing != nil {
		return existing.(*Container[C])
	}

	container := NewContainer[C]()

	if int(typeId) >= len(m.containers) {
		m.containers = append(m.containers, make([]AnyContainer, int(typeId)-len(m.containers)+1)...)
	}

	m.containers[typeId] = container
	m.registered = append(m.registered, typeId)

	return container
}

// existingContainerOf returns the container for C or nil, if none was created yet.
func existingContainerOf[C any](m *Manager) *Container[C] {
	m.ensureOpen()

	if existing := m.lookup(TypeIdOf[C]()); existing != nil {
		return existing.(*Container[C])
	}

	return nil
}

// requireContainerOf returns the container for C. Accessing a component type that
// was never attached is treated the same as accessing an unmapped entity.
func requireContainerOf[C any](m *Manager, entity EntityId) *Container[C] {
	container := existingContainerOf[C](m)
	if container == nil {
		panic(&ComponentNotFoundError{Entity: entity, Type: ComponentTypeOf[C]()})
	}

	return container
}

// Attach attaches value to the entity. See Container.Attach.
func Attach[C any](m *Manager, entity EntityId, value C) C {
	return ContainerOf[C](m).Attach(entity, value)
}

// AttachDefault attaches the zero value of C to the entity.
func AttachDefault[C any](m *Manager, entity EntityId) C {
	var zero C
	return Attach(m, entity, zero)
}

// AttachRange attaches the same value to all entities.
func AttachRange[C any](m *Manager, entities []EntityId, value C) {
	ContainerOf[C](m).AttachRange(entities, value)
}

// AttachPairs attaches each value of the map to its entity.
func AttachPairs[C any](m *Manager, pairs map[EntityId]C) {
	ContainerOf[C](m).AttachPairs(pairs)
}

func Detach[C any](m *Manager, entity EntityId) {
	requireContainerOf[C](m, entity).Detach(entity)
}

func DetachRange[C any](m *Manager, entities []EntityId) {
	if len(entities) == 0 {
		return
	}

	requireContainerOf[C](m, entities[0]).DetachRange(entities)
}

// DetachAll detaches C from every entity. Does nothing if C was never attached.
func DetachAll[C any](m *Manager) {
	if container := existingContainerOf[C](m); container != nil {
		container.DetachAll()
	}
}

func Get[C any](m *Manager, entity EntityId) C {
	return requireContainerOf[C](m, entity).Get(entity)
}

func Ref[C any](m *Manager, entity EntityId) *C {
	return requireContainerOf[C](m, entity).Ref(entity)
}

func Set[C any](m *Manager, entity EntityId, value C) {
	requireContainerOf[C](m, entity).Set(entity, value)
}

func SetPairs[C any](m *Manager, pairs map[EntityId]C) {
	for entity, value := range pairs {
		Set(m, entity, value)
	}
}

func Lookup[C any](m *Manager, entity EntityId) (C, bool) {
	container := existingContainerOf[C](m)
	if container == nil {
		var zero C
		return zero, false
	}

	return container.Lookup(entity)
}

func Has[C any](m *Manager, entity EntityId) bool {
	container := existingContainerOf[C](m)
	return container != nil && container.Has(entity)
}

// ClearComponents detaches every component of the entity.
func (m *Manager) ClearComponents(entity EntityId) {
	m.ensureOpen()

	for _, typeId := range m.registered {
		m.containers[typeId].Remove(entity)
	}
}

// ClearRange detaches every component of all given entities.
func (m *Manager) ClearRange(entities []EntityId) {
	for _, entity := range entities {
		m.ClearComponents(entity)
	}
}

// ClearAll detaches every component from every entity.
func (m *Manager) ClearAll() {
	m.ensureOpen()

	for _, typeId := range m.registered {
		m.containers[typeId].DetachAll()
	}
}

// Container returns the type erased container for the given type id, or nil.
func (m *Manager) Container(typeId TypeId) AnyContainer {
	m.ensureOpen()
	return m.lookup(typeId)
}

// Types returns the type ids of all containers in creation order.
func (m *Manager) Types() []TypeId {
	return append([]TypeId(nil), m.registered...)
}

// Retire detaches all components but keeps the containers for reuse.
func (m *Manager) Retire() {
	if m.closed {
		return
	}

	m.ClearAll()
	m.cache.Reset()
}

// Close drops all containers. The manager must not be used afterwards.
func (m *Manager) Close() {
	if m.closed {
		return
	}

	m.Retire()

	m.containers = nil
	m.registered = nil
	m.closed = true
}

func (m *Manager) lookup(typeId TypeId) AnyContainer {
	if int(typeId) >= len(m.containers) {
		return nil
	}

	return m.containers[typeId]
}

func (m *Manager) ensureOpen() {
	if m.closed {
		panic(ErrManagerClosed)
	}
}
