package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/rockquest/rockquest-backend/internal/apierror"
	"github.com/rockquest/rockquest-backend/internal/database"
	"github.com/rockquest/rockquest-backend/internal/middleware"
	"github.com/rockquest/rockquest-backend/internal/models"
	"github.com/rockquest/rockquest-backend/internal/services"
)

const maxScanImageBytes = 10 << 20 // 10MB

type ScanRockResponse struct {
	Success         bool                `json:"success"`
	PredictedType   models.RockCategory `json:"predictedType"`
	RawLabel        string              `json:"rawLabel"`
	ConfidenceScore float64             `json:"confidenceScore"`
	ImageURL        string              `json:"imageUrl,omitempty"`
	ScanCount       int64               `json:"scanCount"`
	UnknownLabel    bool                `json:"unknownLabel,omitempty"`
	NewBadges       []string            `json:"newBadges,omitempty"`
}

// ScanRock classifies an uploaded rock photo. Only an accepted classification
// increments counters and re-checks achievements; a rejected or failed scan
// leaves every counter untouched.
func ScanRock(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		apierror.Write(w, apierror.New(apierror.KindUnauthorized, "authentication required"))
		return
	}

	if err := r.ParseMultipartForm(maxScanImageBytes); err != nil {
		apierror.Write(w, apierror.Validation("failed to parse multipart form"))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		apierror.Write(w, apierror.Validation("no file provided"))
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxScanImageBytes))
	if err != nil {
		apierror.Write(w, apierror.Validation("failed to read image"))
		return
	}
	if len(image) == 0 {
		apierror.Write(w, apierror.Validation("image is empty"))
		return
	}

	prediction, err := classifier.Classify(r.Context(), image)
	if err != nil {
		// Low-confidence rejections are still logged for the scan history,
		// keeping the real category of the rejected label.
		if apierror.From(err).Kind == apierror.KindLowConfidence {
			rejected, _ := services.NormalizeCategory(prediction.RawLabel)
			logScanEvent(user.ID, prediction.RawLabel, rejected, prediction.Confidence, "", false)
		}
		apierror.Write(w, err)
		return
	}

	category, known := services.NormalizeCategory(prediction.RawLabel)

	// Blob upload is best effort; a classification without a stored image is
	// still a valid scan.
	var imageURL string
	if cloudinaryService != nil {
		uploadCtx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()
		if url, err := cloudinaryService.UploadBytes(uploadCtx, image, uploadFolder+"/scans"); err != nil {
			log.Printf("scan image upload failed: %v", err)
		} else {
			imageURL = url
		}
	}

	logScanEvent(user.ID, prediction.RawLabel, category, prediction.Confidence, imageURL, true)

	total, err := counterStore.Increment(r.Context(), user.ID, models.ActionScan, category, time.Now())
	if err != nil {
		apierror.Write(w, err)
		return
	}

	// Award failure never rolls the scan back; the evaluator re-checks full
	// totals on the next qualifying action.
	var newBadges []string
	if awarded, err := achievementEvaluator.CheckAndAward(r.Context(), user.ID, models.ActionScan, total); err != nil {
		log.Printf("achievement check failed after scan (user=%s): %v", user.ID, err)
	} else {
		for _, a := range awarded {
			newBadges = append(newBadges, a.Title)
		}
	}

	writeJSON(w, http.StatusOK, ScanRockResponse{
		Success:         true,
		PredictedType:   category,
		RawLabel:        prediction.RawLabel,
		ConfidenceScore: prediction.Confidence,
		ImageURL:        imageURL,
		ScanCount:       total,
		UnknownLabel:    !known,
		NewBadges:       newBadges,
	})
}

// logScanEvent appends to the immutable scan history; failures are logged
// only, the scan flow never aborts on history writes.
func logScanEvent(userID, rawLabel string, category models.RockCategory, confidence float64, imageURL string, accepted bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := database.DB.Collection("scan_events").InsertOne(ctx, models.ScanEvent{
		UserID:     userID,
		RawLabel:   rawLabel,
		Category:   category,
		Confidence: confidence,
		ImageURL:   imageURL,
		Accepted:   accepted,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		log.Printf("failed to log scan event (user=%s): %v", userID, err)
	}
}
