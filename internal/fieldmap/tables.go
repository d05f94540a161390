package fieldmap

func rw(app, column string) Field { return Field{App: app, Column: column} }

func ro(app, column string) Field { return Field{App: app, Column: column, ReadOnly: true} }

var registry = map[Entity]*Mapping{
	CompanyInfo: newMapping(CompanyInfo,
		ro("id", "id"),
		rw("name", "name"),
		rw("phone", "phone"),
		rw("email", "email"),
		rw("address", "address"),
		rw("city", "city"),
		rw("country", "country"),
		rw("taxNumber", "tax_number"),
		rw("website", "website"),
		rw("logo", "logo"),
		rw("footerNote", "footer_note"),
		ro("createdAt", "created_at"),
		ro("updatedAt", "updated_at"),
	),
	AppSettings: newMapping(AppSettings,
		ro("id", "id"),
		rw("defaultCurrency", "default_currency"),
		rw("defaultLanguage", "default_language"),
		rw("orderNumberPrefix", "order_number_prefix"),
		rw("autoConfirm", "auto_confirm"),
		rw("shippingZones", "shipping_zones"),
		rw("whatsappTemplates", "whatsapp_templates"),
		ro("createdAt", "created_at"),
		ro("updatedAt", "updated_at"),
	),
	PaymentMethod: newMapping(PaymentMethod,
		ro("id", "id"),
		rw("name", "name"),
		rw("code", "code"),
		rw("feePercent", "fee_percent"),
		rw("isActive", "is_active"),
		ro("createdAt", "created_at"),
		ro("updatedAt", "updated_at"),
	),
	Currency: newMapping(Currency,
		ro("code", "code"),
		rw("name", "name"),
		rw("symbol", "symbol"),
		rw("exchangeRate", "exchange_rate"),
		ro("isDefault", "is_default"),
		rw("isActive", "is_active"),
		ro("createdAt", "created_at"),
		ro("updatedAt", "updated_at"),
	),
	Store: newMapping(Store,
		ro("id", "id"),
		rw("name", "name"),
		rw("code", "code"),
		rw("phone", "phone"),
		rw("address", "address"),
		rw("cityId", "city_id"),
		rw("isActive", "is_active"),
		ro("createdAt", "created_at"),
		ro("updatedAt", "updated_at"),
	),
	City: newMapping(City,
		ro("id", "id"),
		rw("name", "name"),
		rw("region", "region"),
		rw("deliveryFee", "delivery_fee"),
		rw("isActive", "is_active"),
		ro("createdAt", "created_at"),
		ro("updatedAt", "updated_at"),
	),
	ShippingCompany: newMapping(ShippingCompany,
		ro("id", "id"),
		rw("name", "name"),
		rw("code", "code"),
		rw("phone", "phone"),
		rw("trackingUrlTemplate", "tracking_url_template"),
		rw("isActive", "is_active"),
		ro("createdAt", "created_at"),
		ro("updatedAt", "updated_at"),
	),
	User: newMapping(User,
		ro("id", "id"),
		rw("username", "username"),
		rw("fullName", "full_name"),
		rw("email", "email"),
		rw("phone", "phone"),
		rw("role", "role"),
		rw("isActive", "is_active"),
		ro("lastLoginAt", "last_login_at"),
		ro("createdAt", "created_at"),
		ro("updatedAt", "updated_at"),
	),
	ActivityLog: newMapping(ActivityLog,
		ro("id", "id"),
		ro("actorId", "actor_id"),
		ro("actorName", "actor_name"),
		ro("actorRole", "actor_role"),
		ro("action", "action"),
		ro("targetType", "target_type"),
		ro("targetId", "target_id"),
		ro("metadata", "metadata"),
		ro("ipAddress", "ip_address"),
		ro("userAgent", "user_agent"),
		ro("requestId", "request_id"),
		ro("createdAt", "created_at"),
	),
	Client: newMapping(Client,
		ro("id", "id"),
		rw("name", "name"),
		rw("phone", "phone"),
		rw("email", "email"),
		rw("city", "city"),
		rw("address", "address"),
		rw("notes", "notes"),
		ro("isDemo", "is_demo"),
		ro("createdAt", "created_at"),
		ro("updatedAt", "updated_at"),
	),
	Order: newMapping(Order,
		ro("id", "id"),
		ro("orderNumber", "order_number"),
		rw("clientId", "client_id"),
		rw("clientName", "client_name"),
		rw("clientPhone", "client_phone"),
		rw("cityId", "city_id"),
		rw("cityName", "city_name"),
		rw("address", "address"),
		rw("storeId", "store_id"),
		rw("shippingCompanyId", "shipping_company_id"),
		rw("paymentMethodId", "payment_method_id"),
		rw("currencyCode", "currency_code"),
		rw("itemsTotal", "items_total"),
		rw("shippingFee", "shipping_fee"),
		rw("total", "total"),
		ro("status", "status"),
		ro("statusHistory", "status_history"),
		rw("trackingNumber", "tracking_number"),
		rw("notes", "notes"),
		ro("isDemo", "is_demo"),
		ro("importBatchId", "import_batch_id"),
		ro("createdAt", "created_at"),
		ro("updatedAt", "updated_at"),
	),
}
