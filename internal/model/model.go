package model

import (
	"github.com/LeonardoBeccarini/garden_dashboard/internal/model/messages"
)

// Alias per esporre tipi comuni ai servizi

type Reading = messages.Reading
