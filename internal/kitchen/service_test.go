package kitchen

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/homekitchen/internal/audit"
	"github.com/mmynk/homekitchen/internal/models"
)

func TestCreateUserAndDishListsActiveDish(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	chef, err := svc.CreateUser(ctx, models.Fields{"name": "chef", "password": "666"}, 0)
	require.NoError(t, err)

	_, err = svc.CreateDish(ctx, models.Fields{
		"name":        "Mapo Tofu",
		"description": "Spicy",
		"created_by":  chef.ID,
	}, nil, chef.ID)
	require.NoError(t, err)

	dishes, err := svc.ActiveDishes(ctx)
	require.NoError(t, err)
	require.Len(t, dishes, 1)
	assert.Equal(t, "Mapo Tofu", dishes[0].Name)
	assert.Equal(t, "Spicy", dishes[0].Description)
	assert.Equal(t, chef.ID, dishes[0].CreatedBy)
	assert.True(t, dishes[0].IsActive)

	entry := latestAudit(t, store)
	assert.Equal(t, "dishes", entry.TableName)
	assert.Equal(t, dishes[0].ID, entry.RecordID)
	assert.Equal(t, chef.ID, entry.UserID)
	assert.Equal(t, "created dish «Mapo Tofu»", entry.Action)
	assert.Nil(t, entry.OldValues)
	assert.Equal(t, "Mapo Tofu", entry.NewValues["name"])
	assert.Equal(t, true, entry.NewValues["is_active"])
}

func TestCreateUserRecordsSelfAsActor(t *testing.T) {
	svc, store := newTestService(t)

	user, err := svc.CreateUser(context.Background(), models.Fields{"name": "姐姐"}, 0)
	require.NoError(t, err)

	entry := latestAudit(t, store)
	assert.Equal(t, user.ID, entry.UserID)
	assert.Equal(t, "users", entry.TableName)
	assert.Equal(t, "created user «姐姐»", entry.Action)
	assert.NotEqual(t, DefaultPassword, entry.NewValues["password"], "snapshot must hold the hash")

	// Default password applies when none is given.
	got, err := svc.Login(context.Background(), "姐姐", DefaultPassword)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, models.Fields{"name": "U", "password": "pw1"}, 0)
	require.NoError(t, err)

	got, err := svc.Login(ctx, "U", "pw1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	tests := []struct {
		name     string
		user     string
		password string
	}{
		{"wrong password", "U", "wrong"},
		{"unknown user", "nobody", "pw1"},
		{"empty password", "U", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Login(ctx, tt.user, tt.password)
			assert.ErrorIs(t, err, ErrAuthentication)
			assert.Nil(t, got)
		})
	}
}

func TestLoginStorageFailure(t *testing.T) {
	store := newTestStore(t)
	svc := newServiceOn(brokenLookupStore{store}, nil)

	got, err := svc.Login(context.Background(), "U", "pw1")
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, errForced)
	assert.NotErrorIs(t, err, ErrAuthentication)
}

func TestLastPreference(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	f := newFixture(t, svc)

	pref, err := svc.LastPreference(ctx, f.user.ID, f.dish.ID)
	require.NoError(t, err)
	assert.Nil(t, pref, "no items yet")

	_, err = svc.AddOrderItem(ctx, models.Fields{
		"order_id": f.order.ID,
		"dish_id":  f.dish.ID,
		"user_id":  f.user.ID,
		"taste":    "Spicy",
		"remarks":  "More onions",
	}, f.user.ID)
	require.NoError(t, err)

	pref, err = svc.LastPreference(ctx, f.user.ID, f.dish.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.Preference{Taste: "Spicy", Remarks: "More onions"}, pref)

	t.Run("newest item wins", func(t *testing.T) {
		_, err := svc.AddOrderItem(ctx, models.Fields{
			"order_id": f.order.ID,
			"dish_id":  f.dish.ID,
			"user_id":  f.user.ID,
			"taste":    "Mild",
			"location": "Balcony",
		}, f.user.ID)
		require.NoError(t, err)

		pref, err := svc.LastPreference(ctx, f.user.ID, f.dish.ID)
		require.NoError(t, err)
		assert.Equal(t, &models.Preference{Taste: "Mild", Location: "Balcony"}, pref)
	})

	t.Run("survives dish deactivation", func(t *testing.T) {
		require.NoError(t, svc.DeleteDish(ctx, f.dish.ID, f.user.ID))

		pref, err := svc.LastPreference(ctx, f.user.ID, f.dish.ID)
		require.NoError(t, err)
		require.NotNil(t, pref)
		assert.Equal(t, "Mild", pref.Taste)
	})

	t.Run("other member has none", func(t *testing.T) {
		pref, err := svc.LastPreference(ctx, f.user.ID+100, f.dish.ID)
		require.NoError(t, err)
		assert.Nil(t, pref)
	})
}

func TestDeleteDishIsSoft(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	f := newFixture(t, svc)

	require.NoError(t, svc.DeleteDish(ctx, f.dish.ID, f.user.ID))

	dishes, err := svc.ActiveDishes(ctx)
	require.NoError(t, err)
	assert.Empty(t, dishes)

	dish, err := svc.GetDish(ctx, f.dish.ID)
	require.NoError(t, err)
	assert.False(t, dish.IsActive)
	assert.Equal(t, "Mapo Tofu", dish.Name)

	entry := latestAudit(t, store)
	assert.Equal(t, "took dish «Mapo Tofu» off the menu", entry.Action)
	assert.Equal(t, models.Snapshot{"is_active": true}, entry.OldValues)
	assert.Equal(t, models.Snapshot{"is_active": false}, entry.NewValues)

	t.Run("deleting again writes nothing", func(t *testing.T) {
		before := auditCount(t, store)
		require.NoError(t, svc.DeleteDish(ctx, f.dish.ID, f.user.ID))
		assert.Equal(t, before, auditCount(t, store))

		again, err := svc.GetDish(ctx, f.dish.ID)
		require.NoError(t, err)
		assert.Equal(t, dish.UpdatedAt, again.UpdatedAt)
	})

	t.Run("cannot be reactivated", func(t *testing.T) {
		_, err := svc.UpdateDish(ctx, f.dish.ID, models.Fields{"is_active": true}, nil, f.user.ID)
		assert.True(t, IsValidation(err))

		dish, err := svc.GetDish(ctx, f.dish.ID)
		require.NoError(t, err)
		assert.False(t, dish.IsActive)
	})

	t.Run("stays inactive after edits", func(t *testing.T) {
		dish, err := svc.UpdateDish(ctx, f.dish.ID, models.Fields{"description": "Retired"}, nil, f.user.ID)
		require.NoError(t, err)
		assert.False(t, dish.IsActive)
	})

	t.Run("cannot be ordered", func(t *testing.T) {
		before := auditCount(t, store)
		_, err := svc.AddOrderItem(ctx, models.Fields{
			"order_id": f.order.ID,
			"dish_id":  f.dish.ID,
			"user_id":  f.user.ID,
		}, f.user.ID)
		assert.True(t, IsValidation(err))
		assert.Equal(t, before, auditCount(t, store))
	})
}

func TestFailedMutationWritesNothing(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	f := newFixture(t, svc)

	broken := newServiceOn(failingStore{store}, nil)
	logsBefore := auditCount(t, store)

	t.Run("create", func(t *testing.T) {
		_, err := broken.CreateUser(ctx, models.Fields{"name": "ghost"}, f.user.ID)
		require.ErrorIs(t, err, errForced)

		users, err := svc.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
		_, err = store.GetUserByName(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		_, err := broken.UpdateDish(ctx, f.dish.ID, models.Fields{"name": "Kung Pao"}, nil, f.user.ID)
		require.ErrorIs(t, err, errForced)

		dish, err := svc.GetDish(ctx, f.dish.ID)
		require.NoError(t, err)
		assert.Equal(t, "Mapo Tofu", dish.Name)
	})

	t.Run("soft delete", func(t *testing.T) {
		require.ErrorIs(t, broken.DeleteDish(ctx, f.dish.ID, f.user.ID), errForced)

		dish, err := svc.GetDish(ctx, f.dish.ID)
		require.NoError(t, err)
		assert.True(t, dish.IsActive)
	})

	t.Run("hard delete", func(t *testing.T) {
		require.ErrorIs(t, broken.DeleteOrder(ctx, f.order.ID, f.user.ID), errForced)

		_, err := svc.GetOrder(ctx, f.order.ID)
		assert.NoError(t, err)
	})

	assert.Equal(t, logsBefore, auditCount(t, store))
}

func TestMutationWritesOneEntry(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	f := newFixture(t, svc)

	item, err := svc.AddOrderItem(ctx, models.Fields{
		"order_id": f.order.ID, "dish_id": f.dish.ID, "user_id": f.user.ID,
	}, f.user.ID)
	require.NoError(t, err)

	mutations := []struct {
		name  string
		table string
		id    int64
		run   func() error
	}{
		{"update user", "users", f.user.ID, func() error {
			_, err := svc.UpdateUser(ctx, f.user.ID, models.Fields{"name": "head chef"}, f.user.ID)
			return err
		}},
		{"update dish", "dishes", f.dish.ID, func() error {
			_, err := svc.UpdateDish(ctx, f.dish.ID, models.Fields{"description": "Numbing"}, nil, f.user.ID)
			return err
		}},
		{"update order", "orders", f.order.ID, func() error {
			_, err := svc.UpdateOrder(ctx, f.order.ID, models.Fields{"status": "closed"}, f.user.ID)
			return err
		}},
		{"complete item", "order_items", item.ID, func() error {
			_, err := svc.SetItemStatus(ctx, item.ID, models.ItemCompleted, f.user.ID)
			return err
		}},
		{"delete item", "order_items", item.ID, func() error {
			return svc.DeleteOrderItem(ctx, item.ID, f.user.ID)
		}},
		{"delete order", "orders", f.order.ID, func() error {
			return svc.DeleteOrder(ctx, f.order.ID, f.user.ID)
		}},
		{"delete user", "users", f.user.ID, func() error {
			return svc.DeleteUser(ctx, f.user.ID, f.user.ID)
		}},
	}
	for _, m := range mutations {
		t.Run(m.name, func(t *testing.T) {
			before := auditCount(t, store)
			require.NoError(t, m.run())
			assert.Equal(t, before+1, auditCount(t, store))

			entry := latestAudit(t, store)
			assert.Equal(t, m.table, entry.TableName)
			assert.Equal(t, m.id, entry.RecordID)
			assert.Equal(t, f.user.ID, entry.UserID)
		})
	}

	t.Run("history survives user deletion", func(t *testing.T) {
		dish, err := svc.GetDish(ctx, f.dish.ID)
		require.NoError(t, err)
		assert.Equal(t, f.user.ID, dish.CreatedBy)

		trail, err := svc.AuditTrail(ctx)
		require.NoError(t, err)
		for _, entry := range trail {
			assert.Equal(t, f.user.ID, entry.UserID)
		}
	})
}

func TestPartialUpdate(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	f := newFixture(t, svc)

	t.Run("dish", func(t *testing.T) {
		dish, err := svc.UpdateDish(ctx, f.dish.ID, models.Fields{"description": "Mild"}, nil, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Mild", dish.Description)
		assert.Equal(t, "Mapo Tofu", dish.Name)
		assert.Equal(t, f.dish.CreatedBy, dish.CreatedBy)
		assert.Equal(t, f.dish.CreatedAt, dish.CreatedAt)
		assert.True(t, dish.UpdatedAt.After(f.dish.UpdatedAt))

		entry := latestAudit(t, store)
		assert.Equal(t, "updated dish «Mapo Tofu»", entry.Action)
		assert.Equal(t, []string{"description"}, models.Changed(entry.OldValues, entry.NewValues))
		assert.Equal(t, "Spicy", entry.OldValues["description"])
		assert.Equal(t, "Mild", entry.NewValues["description"])
	})

	t.Run("order item", func(t *testing.T) {
		item, err := svc.AddOrderItem(ctx, models.Fields{
			"order_id":    f.order.ID,
			"dish_id":     f.dish.ID,
			"user_id":     f.user.ID,
			"taste":       "Spicy",
			"remarks":     "More onions",
			"custom_data": map[string]any{"spice_level": 3},
		}, f.user.ID)
		require.NoError(t, err)

		updated, err := svc.UpdateOrderItem(ctx, item.ID, models.Fields{"taste": "Mild"}, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Mild", updated.Taste)
		assert.Equal(t, "More onions", updated.Remarks)
		assert.Equal(t, models.ItemPending, updated.Status)
		require.NotNil(t, updated.CustomData)
		assert.Equal(t, float64(3), updated.CustomData.AsMap()["spice_level"])

		entry := latestAudit(t, store)
		assert.Equal(t, "changed «Mapo Tofu»", entry.Action)
		assert.Equal(t, []string{"taste"}, models.Changed(entry.OldValues, entry.NewValues))
		assert.Equal(t, "Mapo Tofu", entry.NewValues["dish_name"])
	})

	t.Run("empty field map", func(t *testing.T) {
		before := latestAudit(t, store).ID
		_, err := svc.UpdateOrder(ctx, f.order.ID, models.Fields{}, f.user.ID)
		require.NoError(t, err)

		entry := latestAudit(t, store)
		assert.Greater(t, entry.ID, before)
		assert.Empty(t, models.Changed(entry.OldValues, entry.NewValues))
	})
}

func TestPasswordUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, models.Fields{"name": "U", "password": "oldpw"}, 0)
	require.NoError(t, err)
	hash := user.PasswordHash

	for _, fields := range []models.Fields{{"password": ""}, {}, {"password": nil}} {
		got, err := svc.UpdateUser(ctx, user.ID, fields, user.ID)
		require.NoError(t, err)
		assert.Equal(t, hash, got.PasswordHash)
	}

	got, err := svc.UpdateUser(ctx, user.ID, models.Fields{"password": "newpw"}, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, hash, got.PasswordHash)
	assert.True(t, svc.hasher.Compare(got.PasswordHash, "newpw"))
	assert.False(t, svc.hasher.Compare(got.PasswordHash, "oldpw"))

	_, err = svc.Login(ctx, "U", "oldpw")
	assert.ErrorIs(t, err, ErrAuthentication)
	_, err = svc.Login(ctx, "U", "newpw")
	assert.NoError(t, err)
}

func TestCurrentOrder(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	order, err := svc.CurrentOrder(ctx)
	require.NoError(t, err)
	assert.Nil(t, order)

	user, err := svc.CreateUser(ctx, models.Fields{"name": "U"}, 0)
	require.NoError(t, err)

	first, err := svc.CreateOrder(ctx, models.Fields{"created_by": user.ID}, user.ID)
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, models.Fields{"created_by": user.ID}, user.ID)
	require.NoError(t, err)
	require.True(t, second.CreatedAt.After(first.CreatedAt))

	current, err := svc.CurrentOrder(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, second.ID, current.ID)

	t.Run("closing the newest falls back", func(t *testing.T) {
		_, err := svc.UpdateOrder(ctx, second.ID, models.Fields{"status": "closed"}, user.ID)
		require.NoError(t, err)

		current, err := svc.CurrentOrder(ctx)
		require.NoError(t, err)
		require.NotNil(t, current)
		assert.Equal(t, first.ID, current.ID)
	})

	t.Run("ensure reuses the open order", func(t *testing.T) {
		before := auditCount(t, store)
		got, err := svc.EnsureCurrentOrder(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
		assert.Equal(t, before, auditCount(t, store))
	})

	t.Run("ensure opens a new order", func(t *testing.T) {
		require.NoError(t, svc.DeleteOrder(ctx, first.ID, user.ID))

		got, err := svc.EnsureCurrentOrder(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusOpen, got.Status)
		assert.Equal(t, user.ID, got.CreatedBy)

		entry := latestAudit(t, store)
		assert.Equal(t, "orders", entry.TableName)
		assert.Equal(t, got.ID, entry.RecordID)
	})
}

func TestAddToCurrentOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	f := newFixture(t, svc)

	item, err := svc.AddToCurrentOrder(ctx, models.Fields{"dish_id": f.dish.ID, "taste": "Spicy"}, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, f.order.ID, item.OrderID)
	assert.Equal(t, f.user.ID, item.UserID)

	lines, err := svc.OrderLines(ctx, f.order.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Mapo Tofu", lines[0].DishName)
	assert.Equal(t, "chef", lines[0].UserName)
	assert.Equal(t, "Spicy", lines[0].Taste)
}

func TestDeleteOrderCascade(t *testing.T) {
	tests := []struct {
		name    string
		cascade bool
		entries int
	}{
		{"single entry", false, 1},
		{"entry per item", true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t, audit.WithCascadeChildren(tt.cascade))
			ctx := context.Background()
			f := newFixture(t, svc)

			for range 2 {
				_, err := svc.AddOrderItem(ctx, models.Fields{
					"order_id": f.order.ID, "dish_id": f.dish.ID, "user_id": f.user.ID,
				}, f.user.ID)
				require.NoError(t, err)
			}

			before := auditCount(t, store)
			require.NoError(t, svc.DeleteOrder(ctx, f.order.ID, f.user.ID))
			assert.Equal(t, before+tt.entries, auditCount(t, store))

			lines, err := svc.OrderLines(ctx, f.order.ID)
			require.NoError(t, err)
			assert.Empty(t, lines)

			_, err = svc.GetOrder(ctx, f.order.ID)
			assert.ErrorIs(t, err, ErrNotFound)

			trail, err := svc.AuditTrail(ctx)
			require.NoError(t, err)
			var orderEntry int
			for _, entry := range trail[:tt.entries] {
				switch entry.TableName {
				case "orders":
					orderEntry++
					assert.Nil(t, entry.NewValues)
					assert.Equal(t, "open", entry.OldValues["status"])
				case "order_items":
					assert.Equal(t, "cancelled «Mapo Tofu»", entry.Action)
					assert.Equal(t, "Mapo Tofu", entry.OldValues["dish_name"])
				}
			}
			assert.Equal(t, 1, orderEntry)
		})
	}
}

func TestValidation(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	f := newFixture(t, svc)

	tests := []struct {
		name string
		run  func() error
	}{
		{"duplicate user name", func() error {
			_, err := svc.CreateUser(ctx, models.Fields{"name": "chef"}, f.user.ID)
			return err
		}},
		{"blank user name", func() error {
			_, err := svc.CreateUser(ctx, models.Fields{"name": "   "}, f.user.ID)
			return err
		}},
		{"long user name", func() error {
			_, err := svc.CreateUser(ctx, models.Fields{"name": strings.Repeat("a", 51)}, f.user.ID)
			return err
		}},
		{"unknown user field", func() error {
			_, err := svc.UpdateUser(ctx, f.user.ID, models.Fields{"role": "admin"}, f.user.ID)
			return err
		}},
		{"dish without creator", func() error {
			_, err := svc.CreateDish(ctx, models.Fields{"name": "Soup"}, nil, f.user.ID)
			return err
		}},
		{"dish creator change", func() error {
			_, err := svc.UpdateDish(ctx, f.dish.ID, models.Fields{"created_by": 99}, nil, f.user.ID)
			return err
		}},
		{"item for missing order", func() error {
			_, err := svc.AddOrderItem(ctx, models.Fields{
				"order_id": 999, "dish_id": f.dish.ID, "user_id": f.user.ID,
			}, f.user.ID)
			return err
		}},
		{"item for missing dish", func() error {
			_, err := svc.AddOrderItem(ctx, models.Fields{
				"order_id": f.order.ID, "dish_id": 999, "user_id": f.user.ID,
			}, f.user.ID)
			return err
		}},
		{"fractional dish id", func() error {
			_, err := svc.AddOrderItem(ctx, models.Fields{
				"order_id": f.order.ID, "dish_id": 1.5, "user_id": f.user.ID,
			}, f.user.ID)
			return err
		}},
		{"out of range dish id", func() error {
			_, err := svc.AddOrderItem(ctx, models.Fields{
				"order_id": f.order.ID, "dish_id": 1e19, "user_id": f.user.ID,
			}, f.user.ID)
			return err
		}},
		{"infinite dish id", func() error {
			_, err := svc.AddOrderItem(ctx, models.Fields{
				"order_id": f.order.ID, "dish_id": math.Inf(1), "user_id": f.user.ID,
			}, f.user.ID)
			return err
		}},
		{"NaN dish id", func() error {
			_, err := svc.AddOrderItem(ctx, models.Fields{
				"order_id": f.order.ID, "dish_id": math.NaN(), "user_id": f.user.ID,
			}, f.user.ID)
			return err
		}},
		{"item with bad status", func() error {
			_, err := svc.AddOrderItem(ctx, models.Fields{
				"order_id": f.order.ID, "dish_id": f.dish.ID, "user_id": f.user.ID, "status": "eaten",
			}, f.user.ID)
			return err
		}},
		{"item with malformed custom data", func() error {
			_, err := svc.AddOrderItem(ctx, models.Fields{
				"order_id": f.order.ID, "dish_id": f.dish.ID, "user_id": f.user.ID, "custom_data": "{not json",
			}, f.user.ID)
			return err
		}},
		{"blank order status", func() error {
			_, err := svc.UpdateOrder(ctx, f.order.ID, models.Fields{"status": ""}, f.user.ID)
			return err
		}},
	}

	before := auditCount(t, store)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}
	assert.Equal(t, before, auditCount(t, store))
}

func TestNotFound(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateDish(ctx, 42, models.Fields{"name": "x"}, nil, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.DeleteDish(ctx, 42, 1), ErrNotFound)
	assert.ErrorIs(t, svc.DeleteOrder(ctx, 42, 1), ErrNotFound)
	assert.ErrorIs(t, svc.DeleteOrderItem(ctx, 42, 1), ErrNotFound)
	assert.ErrorIs(t, svc.DeleteUser(ctx, 42, 1), ErrNotFound)
	assert.Zero(t, auditCount(t, store))
}

func TestItemEnrichmentWithMissingDish(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	f := newFixture(t, svc)

	item, err := svc.AddOrderItem(ctx, models.Fields{
		"order_id": f.order.ID, "dish_id": f.dish.ID, "user_id": f.user.ID,
	}, f.user.ID)
	require.NoError(t, err)

	// A dish that no longer resolves is named by the catalog placeholder.
	svc = newServiceOn(missingDishStore{store}, nil)
	require.NoError(t, svc.DeleteOrderItem(ctx, item.ID, f.user.ID))
	entry := latestAudit(t, store)
	assert.Equal(t, "cancelled «unknown dish»", entry.Action)
	assert.Equal(t, "unknown dish", entry.OldValues["dish_name"])
}

func TestImages(t *testing.T) {
	store := newTestStore(t)
	files := newMemFiles()
	svc := newServiceOn(store, files)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, models.Fields{"name": "U"}, 0)
	require.NoError(t, err)

	dish, err := svc.CreateDish(ctx, models.Fields{"name": "Dumplings", "created_by": user.ID},
		&Image{Filename: "a.jpg", Body: strings.NewReader("one")}, user.ID)
	require.NoError(t, err)
	first := dish.ImageURL
	require.Contains(t, files.files, first)

	dish, err = svc.UpdateDish(ctx, dish.ID, models.Fields{},
		&Image{Filename: "b.jpg", Body: strings.NewReader("two")}, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first, dish.ImageURL)
	assert.Equal(t, []string{first}, files.removed)
	assert.Equal(t, []byte("two"), files.files[dish.ImageURL])

	require.NoError(t, svc.DeleteDish(ctx, dish.ID, user.ID))
	assert.Contains(t, files.files, dish.ImageURL, "soft delete keeps the image")

	updated, err := svc.UpdateBackground(ctx, user.ID, Image{Filename: "bg.png", Body: strings.NewReader("bg")}, user.ID)
	require.NoError(t, err)
	assert.Contains(t, files.files, updated.BackgroundImage)

	t.Run("rejected update keeps the current image", func(t *testing.T) {
		current, err := svc.GetDish(ctx, dish.ID)
		require.NoError(t, err)
		saved, removed := len(files.files), len(files.removed)

		_, err = svc.UpdateDish(ctx, dish.ID, models.Fields{"name": ""},
			&Image{Filename: "c.jpg", Body: strings.NewReader("three")}, user.ID)
		require.True(t, IsValidation(err), "got %v", err)

		after, err := svc.GetDish(ctx, dish.ID)
		require.NoError(t, err)
		assert.Equal(t, current.ImageURL, after.ImageURL)
		assert.Contains(t, files.files, after.ImageURL)
		assert.Len(t, files.files, saved)
		assert.Len(t, files.removed, removed)
	})

	t.Run("rejected create saves no file", func(t *testing.T) {
		saved := len(files.files)
		_, err := svc.CreateDish(ctx, models.Fields{"name": "Soup"},
			&Image{Filename: "d.jpg", Body: strings.NewReader("four")}, user.ID)
		require.True(t, IsValidation(err), "got %v", err)
		assert.Len(t, files.files, saved)
	})

	t.Run("without a file store", func(t *testing.T) {
		plain := newServiceOn(store, nil)
		_, err := plain.CreateDish(ctx, models.Fields{"name": "Soup", "created_by": user.ID},
			&Image{Filename: "c.jpg", Body: strings.NewReader("x")}, user.ID)
		assert.Error(t, err)
	})
}

func TestSeed(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	n, err := Seed(ctx, svc, []string{"dad", " ", "mom", "baby"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "dad", users[0].Name)

	_, err = svc.Login(ctx, "mom", DefaultPassword)
	require.NoError(t, err)

	// Second run is a no-op.
	n, err = Seed(ctx, svc, []string{"grandma"})
	require.NoError(t, err)
	assert.Zero(t, n)

	logs, err := store.ListAuditLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	for _, l := range logs {
		assert.Equal(t, l.RecordID, l.UserID)
	}
}
