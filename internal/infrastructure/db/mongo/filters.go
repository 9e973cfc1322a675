package mongo

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
)

// activeMembers matches active users holding the MEMBER role.
func activeMembers() bson.M {
	return bson.M{"role": domain.RoleMember.String(), "active": true}
}

// availableMembersFilter matches active members whose name starts with
// prefix, case-insensitively, and who are not in members.
func availableMembersFilter(members []primitive.ObjectID, prefix string) bson.M {
	f := activeMembers()
	f["name"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix), Options: "i"}
	f["_id"] = bson.M{"$nin": members}
	return f
}

// busyMembersFilter matches the open tasks of a project.
func busyMembersFilter(projectID primitive.ObjectID) bson.M {
	return bson.M{
		"project_id": projectID,
		"status":     bson.M{"$in": openStatuses()},
	}
}

// availableForTaskFilter matches active members of the project that hold
// no open task in it.
func availableForTaskFilter(members []primitive.ObjectID, busy []any) bson.M {
	if busy == nil {
		busy = []any{}
	}
	f := activeMembers()
	f["_id"] = bson.M{"$in": members, "$nin": busy}
	return f
}

// addMembersUpdate unions ids into the member set; repeated ids are no-ops.
func addMembersUpdate(ids []string) bson.M {
	return bson.M{"$addToSet": bson.M{"member_ids": bson.M{"$each": objectIDs(ids)}}}
}

func memberCountPipeline(managerID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"manager_id": managerID}}},
		{{Key: "$unwind", Value: "$member_ids"}},
		{{Key: "$group", Value: bson.M{"_id": "$member_ids"}}},
		{{Key: "$count", Value: "total"}},
	}
}

func taskStatsPipeline(projectIDs []any) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"project_id": bson.M{"$in": projectIDs}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": 1},
			"in_progress": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", string(domain.StatusInProgress)}}, 1, 0},
			}},
		}}},
	}
}

// scopedFilter matches one document by id within a parent scope, e.g. a
// task inside a project or assigned to a member.
func scopedFilter(id, field, scopeID string) (bson.M, bool) {
	oid, ok := objectID(id)
	if !ok {
		return nil, false
	}
	scope, ok := objectID(scopeID)
	if !ok {
		return nil, false
	}
	return bson.M{"_id": oid, field: scope}, true
}

func openStatuses() []string {
	out := make([]string, 0, len(domain.OpenStatuses))
	for _, s := range domain.OpenStatuses {
		out = append(out, string(s))
	}
	return out
}
