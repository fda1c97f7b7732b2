package models

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Tag{},
		&Article{},
		&Link{},
		&LinkView{},
		&Comment{},
		&Reaction{},
		&Follow{},
		&Report{},
	}
}
