package models

// All returns every persisted model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&SubscriptionModel{},
		&ChannelCredentialModel{},
		&InstanceModel{},
		&PaymentOrderModel{},
	}
}
