package db

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"folio/models"
)

// PatchFilter folds the patch guard into filter: every Absent entry
// becomes {field: {$ne: value}}, so the match and the update happen in
// the same server-side operation.
func PatchFilter(filter bson.M, p models.Patch) bson.M {
	out := bson.M{}
	for k, v := range filter {
		out[k] = v
	}
	for field, value := range p.Absent {
		out[field] = bson.M{"$ne": value}
	}
	return out
}

// PatchUpdate translates a patch into update operators and stamps updatedAt.
func PatchUpdate(p models.Patch, now time.Time) bson.M {
	update := bson.M{
		"$set": bson.M{"updatedAt": now.UTC().Truncate(time.Millisecond)},
	}
	if len(p.AddToSet) > 0 {
		set := bson.M{}
		for field, value := range p.AddToSet {
			set[field] = value
		}
		update["$addToSet"] = set
	}
	if len(p.Pull) > 0 {
		pull := bson.M{}
		for field, value := range p.Pull {
			pull[field] = value
		}
		update["$pull"] = pull
	}
	if len(p.Inc) > 0 {
		inc := bson.M{}
		for field, n := range p.Inc {
			inc[field] = n
		}
		update["$inc"] = inc
	}
	return update
}
