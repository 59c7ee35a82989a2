package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/pkg/model"
)

func TestDecodeList(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantIDs []string
		wantErr string
	}{
		{"bare array", `[{"_id":"b1","status":"confirmee"}]`, []string{"b1"}, ""},
		{"envelope", `{"success":true,"data":[{"_id":"b1","status":"confirmee"},{"_id":"b2","status":"annulee"}]}`, []string{"b1", "b2"}, ""},
		{"empty body", ``, []string{}, ""},
		{"null data", `{"success":true,"data":null}`, []string{}, ""},
		{"unsuccessful", `{"success":false,"message":"token expired"}`, nil, "token expired"},
		{"garbage", `<html>`, nil, "could not decode list envelope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := DecodeList[model.LodgingBooking]([]byte(tt.body))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			ids := make([]string, 0, len(items))
			for _, it := range items {
				ids = append(ids, it.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestDecodeList_UnpopulatedReferenceIsAbsent(t *testing.T) {
	body := `{"success":true,"data":[
		{"_id":"b1","property":"64ab12","checkIn":"2025-07-14","totalPrice":240,"status":"confirmee"},
		{"_id":"b2","property":{"title":"Villa"},"checkIn":"2025-07-20","totalPrice":300,"status":"en_attente"}
	]}`

	items, err := DecodeList[model.LodgingBooking]([]byte(body))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Nil(t, items[0].Property)
	assert.Equal(t, "confirmee", items[0].Status)
	assert.InDelta(t, 240.0, items[0].TotalPrice, 0.001)
	require.NotNil(t, items[1].Property)
	assert.Equal(t, "Villa", items[1].Property.Title)
}

func TestDecodeList_UnpopulatedReferencesPerDomain(t *testing.T) {
	appts, err := DecodeList[model.ServiceAppointment]([]byte(
		`[{"_id":"a1","service":"65f0","status":"pending"},{"_id":"a2","service":{"name":"Massage","provider":"77c1"},"status":"confirmed"}]`))
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Nil(t, appts[0].Service)
	require.NotNil(t, appts[1].Service)
	assert.Equal(t, "Massage", appts[1].Service.Name)
	assert.Nil(t, appts[1].Service.Provider)

	tickets, err := DecodeList[model.TicketBooking]([]byte(
		`[{"_id":"t1","touristicPlace":42,"status":"paid"},{"_id":"t2","touristicPlace":null,"status":"pending"}]`))
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Nil(t, tickets[0].TouristicPlace)
	assert.Nil(t, tickets[1].TouristicPlace)

	flights, err := DecodeList[model.FlightReservation]([]byte(
		`[{"_id":"f1","vol":"66aa","nombrePassagers":2,"status":"confirmee"},{"_id":"f2","vol":{"compagnie":"Air Austral","prix":"cher"},"nombrePassagers":1,"status":"confirmee"}]`))
	require.NoError(t, err)
	require.Len(t, flights, 2)
	assert.Nil(t, flights[0].Vol)
	assert.Nil(t, flights[1].Vol)
	assert.Zero(t, flights[0].Amount())
}
