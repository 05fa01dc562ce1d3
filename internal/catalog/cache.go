package catalog

import (
	"encoding/json"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	skillsCacheKey    = "catalog::skills"
	exercisesCacheKey = "catalog::exercises"
)

// ReferenceCache holds serialized skill and exercise lists in-process. Both are global
// reference data that only change on seeding.
type ReferenceCache struct {
	cache  *freecache.Cache
	expire time.Duration
}

func NewReferenceCache(sizeMB int, expire time.Duration) *ReferenceCache {
	megabyte := 1024 * 1024
	return &ReferenceCache{
		cache:  freecache.NewCache(sizeMB * megabyte),
		expire: expire,
	}
}

func (c *ReferenceCache) Skills() ([]Skill, bool) {
	var skills []Skill
	ok := c.get(skillsCacheKey, &skills)
	return skills, ok
}

func (c *ReferenceCache) SetSkills(skills []Skill) {
	c.set(skillsCacheKey, skills)
}

func (c *ReferenceCache) Exercises() ([]Exercise, bool) {
	var exercises []Exercise
	ok := c.get(exercisesCacheKey, &exercises)
	return exercises, ok
}

func (c *ReferenceCache) SetExercises(exercises []Exercise) {
	c.set(exercisesCacheKey, exercises)
}

func (c *ReferenceCache) Invalidate() {
	c.cache.Del([]byte(skillsCacheKey))
	c.cache.Del([]byte(exercisesCacheKey))
}

func (c *ReferenceCache) get(key string, dst any) bool {
	data, err := c.cache.Get([]byte(key))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Errorf("reference cache: unmarshal [%s]: %s", key, err)
		c.cache.Del([]byte(key))
		return false
	}
	return true
}

func (c *ReferenceCache) set(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Errorf("reference cache: marshal [%s]: %s", key, err)
		return
	}
	if err := c.cache.Set([]byte(key), data, int(c.expire.Seconds())); err != nil {
		log.Errorf("reference cache: set [%s]: %s", key, err)
	}
}
