package block

// BlockBehavior определяет свойства блока, важные для генерации и физики
type BlockBehavior interface {
	ID() BlockID
	Name() string
	// Collides сообщает, участвует ли блок в столкновениях
	Collides() bool
	// Transparent сообщает, пропускает ли блок свет (для внешнего построителя мешей)
	Transparent() bool
}

// staticBehavior — неизменяемый набор свойств блока
type staticBehavior struct {
	id          BlockID
	name        string
	collides    bool
	transparent bool
}

func (b staticBehavior) ID() BlockID       { return b.id }
func (b staticBehavior) Name() string      { return b.name }
func (b staticBehavior) Collides() bool    { return b.collides }
func (b staticBehavior) Transparent() bool { return b.transparent }

// Solid создаёт поведение непрозрачного твёрдого блока
func Solid(id BlockID, name string) BlockBehavior {
	return staticBehavior{id: id, name: name, collides: true}
}

// SolidTransparent создаёт поведение твёрдого, но прозрачного блока (листва, вода)
func SolidTransparent(id BlockID, name string) BlockBehavior {
	return staticBehavior{id: id, name: name, collides: true, transparent: true}
}

// Passable создаёт поведение блока без столкновений
func Passable(id BlockID, name string) BlockBehavior {
	return staticBehavior{id: id, name: name, transparent: true}
}
