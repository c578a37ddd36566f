package sqlstore

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	bookingStatuses = []string{"pending", "accepted", "rejected", "canceled"}
	paymentStatuses = []string{"paid", "refunded"}
	chatStatuses    = []string{"pending", "accepted", "rejected"}
	roles           = []string{"user", "consultant", "admin"}
	refundReasons   = []string{"rejection", "cancellation"}
	recordKinds     = []string{"history", "treatment", "prescription"}
)

var (
	UsersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "email", Type: field.TypeString, Unique: true},
		{Name: "name", Type: field.TypeString},
		{Name: "phone", Type: field.TypeString, Nullable: true},
		{Name: "password_hash", Type: field.TypeString},
		{Name: "role", Type: field.TypeEnum, Enums: roles, Default: "user"},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	UsersTable = &schema.Table{
		Name:       "users",
		Columns:    UsersColumns,
		PrimaryKey: []*schema.Column{UsersColumns[0]},
		Indexes: []*schema.Index{
			{Name: "user_role", Columns: []*schema.Column{UsersColumns[5]}},
		},
	}

	ConsultantProfilesColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeUUID},
		{Name: "specialty", Type: field.TypeString, Default: ""},
		{Name: "qualifications", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "bio", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "availability", Type: field.TypeJSON, Nullable: true},
		{Name: "is_approved", Type: field.TypeBool, Default: false},
		{Name: "bank_account", Type: field.TypeString, Size: 2147483647, Nullable: true},
		{Name: "updated_at", Type: field.TypeTime},
	}
	ConsultantProfilesTable = &schema.Table{
		Name:       "consultant_profiles",
		Columns:    ConsultantProfilesColumns,
		PrimaryKey: []*schema.Column{ConsultantProfilesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "consultant_profiles_users_profile",
				Columns:    []*schema.Column{ConsultantProfilesColumns[0]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{Name: "consultantprofile_is_approved_specialty", Columns: []*schema.Column{ConsultantProfilesColumns[5], ConsultantProfilesColumns[1]}},
		},
	}

	BookingsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "user_id", Type: field.TypeUUID},
		{Name: "consultant_id", Type: field.TypeUUID},
		{Name: "date", Type: field.TypeString, Size: 10},
		{Name: "time_slot", Type: field.TypeString, Size: 11},
		{Name: "notes", Type: field.TypeString, Size: 2147483647, Nullable: true},
		{Name: "status", Type: field.TypeEnum, Enums: bookingStatuses, Default: "pending"},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	BookingsTable = &schema.Table{
		Name:       "bookings",
		Columns:    BookingsColumns,
		PrimaryKey: []*schema.Column{BookingsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "bookings_users_bookings",
				Columns:    []*schema.Column{BookingsColumns[1]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.NoAction,
			},
			{
				Symbol:     "bookings_users_consultations",
				Columns:    []*schema.Column{BookingsColumns[2]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{
				// At most one accepted booking per consultant slot.
				Name:       "booking_consultant_id_date_time_slot_accepted",
				Unique:     true,
				Columns:    []*schema.Column{BookingsColumns[2], BookingsColumns[3], BookingsColumns[4]},
				Annotation: &entsql.IndexAnnotation{Where: "status = 'accepted'"},
			},
			{Name: "booking_consultant_id_date", Columns: []*schema.Column{BookingsColumns[2], BookingsColumns[3]}},
			{Name: "booking_user_id_date_time_slot", Columns: []*schema.Column{BookingsColumns[1], BookingsColumns[3], BookingsColumns[4]}},
		},
	}

	PaymentsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "booking_id", Type: field.TypeUUID, Unique: true},
		{Name: "amount", Type: field.TypeInt64},
		{Name: "currency", Type: field.TypeString, Size: 3},
		{Name: "status", Type: field.TypeEnum, Enums: paymentStatuses, Default: "paid"},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	PaymentsTable = &schema.Table{
		Name:       "payments",
		Columns:    PaymentsColumns,
		PrimaryKey: []*schema.Column{PaymentsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "payments_bookings_payment",
				Columns:    []*schema.Column{PaymentsColumns[1]},
				RefColumns: []*schema.Column{BookingsColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
	}

	RefundsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "payment_id", Type: field.TypeUUID},
		{Name: "refund_amount", Type: field.TypeInt64},
		{Name: "reason", Type: field.TypeEnum, Enums: refundReasons},
		{Name: "note", Type: field.TypeString, Size: 2147483647, Nullable: true},
		{Name: "refunded_at", Type: field.TypeTime},
	}
	RefundsTable = &schema.Table{
		Name:       "refunds",
		Columns:    RefundsColumns,
		PrimaryKey: []*schema.Column{RefundsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "refunds_payments_refunds",
				Columns:    []*schema.Column{RefundsColumns[1]},
				RefColumns: []*schema.Column{PaymentsColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{Name: "refund_payment_id", Columns: []*schema.Column{RefundsColumns[1]}},
		},
	}

	ChatRequestsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "user_id", Type: field.TypeUUID},
		{Name: "consultant_id", Type: field.TypeUUID},
		{Name: "booking_id", Type: field.TypeUUID, Unique: true},
		{Name: "status", Type: field.TypeEnum, Enums: chatStatuses, Default: "pending"},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	ChatRequestsTable = &schema.Table{
		Name:       "chat_requests",
		Columns:    ChatRequestsColumns,
		PrimaryKey: []*schema.Column{ChatRequestsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "chat_requests_bookings_chat",
				Columns:    []*schema.Column{ChatRequestsColumns[3]},
				RefColumns: []*schema.Column{BookingsColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{Name: "chatrequest_user_id", Columns: []*schema.Column{ChatRequestsColumns[1]}},
			{Name: "chatrequest_consultant_id", Columns: []*schema.Column{ChatRequestsColumns[2]}},
		},
	}

	MessagesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "chat_request_id", Type: field.TypeUUID},
		{Name: "sender_id", Type: field.TypeUUID},
		{Name: "text", Type: field.TypeString, Size: 2147483647},
		{Name: "sent_at", Type: field.TypeTime},
	}
	MessagesTable = &schema.Table{
		Name:       "messages",
		Columns:    MessagesColumns,
		PrimaryKey: []*schema.Column{MessagesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "messages_chat_requests_messages",
				Columns:    []*schema.Column{MessagesColumns[1]},
				RefColumns: []*schema.Column{ChatRequestsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "message_chat_request_id_sent_at", Columns: []*schema.Column{MessagesColumns[1], MessagesColumns[4]}},
		},
	}

	ReviewsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "user_id", Type: field.TypeUUID},
		{Name: "consultant_id", Type: field.TypeUUID},
		{Name: "rating", Type: field.TypeInt},
		{Name: "text", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
	}
	ReviewsTable = &schema.Table{
		Name:       "reviews",
		Columns:    ReviewsColumns,
		PrimaryKey: []*schema.Column{ReviewsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "review_consultant_id_created_at", Columns: []*schema.Column{ReviewsColumns[2], ReviewsColumns[5]}},
		},
	}

	HealthRecordsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "user_id", Type: field.TypeUUID},
		{Name: "kind", Type: field.TypeEnum, Enums: recordKinds},
		{Name: "content", Type: field.TypeString, Size: 2147483647},
		{Name: "attachment_key", Type: field.TypeString, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	HealthRecordsTable = &schema.Table{
		Name:       "health_records",
		Columns:    HealthRecordsColumns,
		PrimaryKey: []*schema.Column{HealthRecordsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "health_records_users_records",
				Columns:    []*schema.Column{HealthRecordsColumns[1]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{Name: "healthrecord_user_id_created_at", Columns: []*schema.Column{HealthRecordsColumns[1], HealthRecordsColumns[5]}},
		},
	}

	AuditLogsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "actor_id", Type: field.TypeUUID},
		{Name: "action", Type: field.TypeString},
		{Name: "entity", Type: field.TypeString},
		{Name: "entity_id", Type: field.TypeUUID},
		{Name: "details", Type: field.TypeJSON, Nullable: true},
		{Name: "at", Type: field.TypeTime},
	}
	AuditLogsTable = &schema.Table{
		Name:       "audit_logs",
		Columns:    AuditLogsColumns,
		PrimaryKey: []*schema.Column{AuditLogsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "auditlog_entity_entity_id", Columns: []*schema.Column{AuditLogsColumns[3], AuditLogsColumns[4]}},
			{Name: "auditlog_actor_id", Columns: []*schema.Column{AuditLogsColumns[1]}},
			{Name: "auditlog_at", Columns: []*schema.Column{AuditLogsColumns[6]}},
		},
	}

	Tables = []*schema.Table{
		UsersTable,
		ConsultantProfilesTable,
		BookingsTable,
		PaymentsTable,
		RefundsTable,
		ChatRequestsTable,
		MessagesTable,
		ReviewsTable,
		HealthRecordsTable,
		AuditLogsTable,
	}
)

func init() {
	ConsultantProfilesTable.ForeignKeys[0].RefTable = UsersTable
	BookingsTable.ForeignKeys[0].RefTable = UsersTable
	BookingsTable.ForeignKeys[1].RefTable = UsersTable
	PaymentsTable.ForeignKeys[0].RefTable = BookingsTable
	RefundsTable.ForeignKeys[0].RefTable = PaymentsTable
	ChatRequestsTable.ForeignKeys[0].RefTable = BookingsTable
	MessagesTable.ForeignKeys[0].RefTable = ChatRequestsTable
	HealthRecordsTable.ForeignKeys[0].RefTable = UsersTable
}

// Migrate creates or alters every table to match Tables.
func Migrate(ctx context.Context, drv dialect.Driver, opts ...schema.MigrateOption) error {
	m, err := schema.NewMigrate(drv, opts...)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
