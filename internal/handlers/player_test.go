package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rockquest/rockquest-backend/internal/models"
)

func TestNewRockFromRequestInlineFields(t *testing.T) {
	lat, lng := 1.35, 103.82
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	rock := newRockFromRequest(AddRockRequest{
		Name:     "Granite",
		Type:     "igneous",
		ImageURL: "https://img.example/granite.jpg",
		Lat:      &lat,
		Lng:      &lng,
	}, nil, "user-1", now)

	require.Equal(t, "Granite", rock.Name)
	require.Equal(t, models.CategoryIgneous, rock.Type)
	require.Equal(t, "https://img.example/granite.jpg", rock.ImageURL)
	require.Equal(t, &lat, rock.Lat)
	require.Equal(t, &lng, rock.Lng)
	require.Equal(t, "user-1", rock.UploadedBy)
	require.Equal(t, now, rock.CreatedAt)
	require.False(t, rock.Verified)
}

func TestNewRockFromRequestCopiesSourceFields(t *testing.T) {
	lat, lng := 1.35, 103.82
	source := &models.Rock{
		Name:        "Basalt",
		Type:        models.CategoryIgneous,
		Description: "Fine-grained volcanic rock",
		ImageURL:    "https://img.example/basalt.jpg",
		Lat:         &lat,
		Lng:         &lng,
		UploadedBy:  "someone-else",
		Verified:    true,
	}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// The save-by-reference payload carries only rockId and imageUrl.
	rock := newRockFromRequest(AddRockRequest{
		RockID:   "507f1f77bcf86cd799439011",
		ImageURL: "https://img.example/my-shot.jpg",
	}, source, "user-1", now)

	require.Equal(t, "Basalt", rock.Name)
	require.Equal(t, models.CategoryIgneous, rock.Type)
	require.Equal(t, "Fine-grained volcanic rock", rock.Description)
	require.Equal(t, "https://img.example/my-shot.jpg", rock.ImageURL)
	require.Equal(t, &lat, rock.Lat)
	require.Equal(t, &lng, rock.Lng)

	// The copy belongs to the caller and starts unverified.
	require.Equal(t, "user-1", rock.UploadedBy)
	require.False(t, rock.Verified)
	require.Empty(t, rock.VerifiedBy)
}

func TestNewRockFromRequestRequestWinsOverSource(t *testing.T) {
	source := &models.Rock{
		Name: "Basalt",
		Type: models.CategoryIgneous,
	}

	rock := newRockFromRequest(AddRockRequest{
		RockID: "507f1f77bcf86cd799439011",
		Name:   "My Basalt",
		Type:   "metamorphic",
	}, source, "user-1", time.Now())

	require.Equal(t, "My Basalt", rock.Name)
	require.Equal(t, models.CategoryMetamorphic, rock.Type)
}
