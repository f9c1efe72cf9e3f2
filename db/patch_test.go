package db

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"folio/models"
)

func TestPatchFilterGuard(t *testing.T) {
	p := models.RecordInteraction(models.Like, "u1")
	filter := PatchFilter(bson.M{"_id": "r1"}, p)

	if filter["_id"] != "r1" {
		t.Fatalf("lost id: %v", filter)
	}
	guard, ok := filter["likedBy"].(bson.M)
	if !ok || guard["$ne"] != "u1" {
		t.Fatalf("expected $ne guard on likedBy, got %v", filter["likedBy"])
	}
}

func TestPatchUpdateOperators(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 999999999, time.UTC)
	update := PatchUpdate(models.RecordInteraction(models.View, "u1"), now)

	if got := update["$addToSet"].(bson.M)["viewedBy"]; got != "u1" {
		t.Fatalf("$addToSet.viewedBy = %v", got)
	}
	if got := update["$inc"].(bson.M)["viewsCount"]; got != 1 {
		t.Fatalf("$inc.viewsCount = %v", got)
	}
	if _, ok := update["$pull"]; ok {
		t.Fatal("unexpected $pull operator")
	}
	stamp := update["$set"].(bson.M)["updatedAt"].(time.Time)
	if !stamp.Equal(now.Truncate(time.Millisecond)) {
		t.Fatalf("updatedAt = %v", stamp)
	}
}
